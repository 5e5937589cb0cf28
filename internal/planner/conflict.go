package planner

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/wsforge/internal/builder"
	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/model"
)

// ConflictType classifies a pre-existing path in the target directory.
type ConflictType string

const (
	// TypeStructureRoot is an existing <target>/.claude directory.
	TypeStructureRoot ConflictType = "structure-root"

	// TypeMergeConfig is an existing <target>/.mcp.json file.
	TypeMergeConfig ConflictType = "merge-config"

	// TypeWorktreeDir is an existing <target>/<repo name> directory.
	TypeWorktreeDir ConflictType = "worktree-dir"
)

// ConflictTypes lists every conflict class in detection order.
var ConflictTypes = []ConflictType{TypeStructureRoot, TypeMergeConfig, TypeWorktreeDir}

// ParseConflictType converts a user supplied string into a ConflictType.
func ParseConflictType(s string) (ConflictType, error) {
	for _, ct := range ConflictTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown conflict type %q (want one of structure-root, merge-config, worktree-dir)", s)
}

// Resolution is the caller's choice for a conflict class.
type Resolution string

const (
	ResolutionOverwrite Resolution = "overwrite"
	ResolutionMerge     Resolution = "merge"
	ResolutionCancel    Resolution = "cancel"
)

// Resolutions lists every resolution in prompt order.
var Resolutions = []Resolution{ResolutionMerge, ResolutionOverwrite, ResolutionCancel}

// ParseResolution converts a user supplied string into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	for _, r := range Resolutions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resolution %q (want one of merge, overwrite, cancel)", s)
}

// Conflict is a path an apply would collide with.
type Conflict struct {
	// Type is the conflict class
	Type ConflictType `json:"type"`

	// Path is the absolute path that already exists
	Path string `json:"path"`

	// Name is the display name (".claude", ".mcp.json" or the repo name)
	Name string `json:"name"`
}

// ConflictDetector checks a target directory for pre-existing paths.
type ConflictDetector struct {
	fs fsops.FS
}

// NewConflictDetector creates a new ConflictDetector.
func NewConflictDetector(fs fsops.FS) *ConflictDetector {
	return &ConflictDetector{fs: fs}
}

// Check reports existing paths in targetDir that an apply would write to.
// The structure root is only considered when hasStructure is set, the
// merge-config file only when hasMergeConfig is set, and one worktree dir per
// repo. The result is ordered by class and then by repo order.
func (d *ConflictDetector) Check(targetDir string, hasStructure, hasMergeConfig bool, repos []model.Resource) ([]Conflict, error) {
	conflicts := []Conflict{}

	check := func(ct ConflictType, name string) error {
		path := filepath.Join(targetDir, name)
		exists, err := d.fs.Exists(path)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
		if exists {
			conflicts = append(conflicts, Conflict{Type: ct, Path: path, Name: name})
		}
		return nil
	}

	if hasStructure {
		if err := check(TypeStructureRoot, builder.StructureDirName); err != nil {
			return nil, err
		}
	}
	if hasMergeConfig {
		if err := check(TypeMergeConfig, builder.MCPFileName); err != nil {
			return nil, err
		}
	}
	for _, repo := range repos {
		if err := d.fs.ValidateIdentifier(repo.Name); err != nil {
			return nil, fmt.Errorf("invalid repo name %q: %w", repo.Name, err)
		}
		if err := check(TypeWorktreeDir, repo.Name); err != nil {
			return nil, err
		}
	}

	return conflicts, nil
}

// Classes returns the distinct conflict classes present in conflicts, in
// detection order.
func Classes(conflicts []Conflict) []ConflictType {
	seen := make(map[ConflictType]bool)
	out := []ConflictType{}
	for _, c := range conflicts {
		if !seen[c.Type] {
			seen[c.Type] = true
			out = append(out, c.Type)
		}
	}
	return out
}
