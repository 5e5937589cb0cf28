package model

import (
	"fmt"
	"time"
)

// Kind discriminates the resource variants.
type Kind string

const (
	KindRepo    Kind = "repo"
	KindSkill   Kind = "skill"
	KindAgent   Kind = "agent"
	KindCommand Kind = "command"
	KindMCP     Kind = "mcp"
)

// Kinds lists every resource kind in display order.
var Kinds = []Kind{KindRepo, KindSkill, KindAgent, KindCommand, KindMCP}

// ParseKind converts a user supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// SkillFile is an auxiliary file shipped with a skill.
type SkillFile struct {
	// RelativePath is relative to the skill directory (e.g. "references/api.md")
	RelativePath string `json:"relativePath"`

	Content string `json:"content"`
}

// Resource is a stored configurable unit.
// Only the fields belonging to Type are populated.
type Resource struct {
	ID        string    `json:"id"`
	Type      Kind      `json:"type"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Path is the absolute path of a source repository (repo)
	Path string `json:"path,omitempty"`

	// SkillMD is the primary SKILL.md document (skill)
	SkillMD string `json:"skillMd,omitempty"`

	// Files are the auxiliary files of a skill (skill)
	Files []SkillFile `json:"files,omitempty"`

	// Content is the markdown document (agent, command)
	Content string `json:"content,omitempty"`

	// Config is the JSON object merged into .mcp.json (mcp)
	Config map[string]any `json:"config,omitempty"`
}

// Is reports whether the resource is of kind k.
func (r *Resource) Is(k Kind) bool {
	return r.Type == k
}

// ResolvedResource is a compose reference after resolution.
// Missing is set when the referenced resource no longer exists.
type ResolvedResource struct {
	Resource
	Missing bool `json:"missing"`
}

// ResolvedRepo is a compose repo reference after resolution.
type ResolvedRepo struct {
	Resource
	BaseBranch string `json:"baseBranch"`
	Missing    bool   `json:"missing"`
}

// MissingName is the display name of a placeholder for a deleted resource.
const MissingName = "(deleted)"

// placeholder builds the stand-in for a dangling reference.
func placeholder(id string, kind Kind) Resource {
	r := Resource{ID: id, Type: kind, Name: MissingName}
	if kind == KindMCP {
		r.Config = map[string]any{}
	}
	return r
}
