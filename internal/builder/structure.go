package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/hash"
	"github.com/danieljhkim/wsforge/internal/model"
)

const (
	// StructureDirName is the structure root created under the target directory.
	StructureDirName = ".claude"

	skillsDirName   = ".skills"
	agentsDirName   = "agents"
	commandsDirName = "commands"
	skillDocName    = "SKILL.md"
	settingsName    = "settings.json"
)

// Settings is the index document written to .claude/settings.json.
type Settings struct {
	Skills []string `json:"skills"`
}

// BuildReport summarizes the files a build touched.
type BuildReport struct {
	// Written lists files whose content was (re)written.
	Written []string

	// Unchanged lists files that already had the rendered content.
	Unchanged []string
}

// StructureBuilder writes the .claude subtree.
type StructureBuilder struct {
	fs     fsops.FS
	hasher hash.Hasher
}

// NewStructureBuilder creates a StructureBuilder.
func NewStructureBuilder(fs fsops.FS, hasher hash.Hasher) *StructureBuilder {
	return &StructureBuilder{fs: fs, hasher: hasher}
}

// StructureRoot returns the structure root for targetDir.
func StructureRoot(targetDir string) string {
	return filepath.Join(targetDir, StructureDirName)
}

// SkillMountPath is the settings.json entry for a skill.
func SkillMountPath(name string) string {
	return skillsDirName + "/" + name
}

// Build writes every skill, agent and command under targetDir/.claude and
// the settings.json index. When all three lists are empty nothing is created.
func (b *StructureBuilder) Build(targetDir string, skills, agents, commands []model.Resource) (*BuildReport, error) {
	report := &BuildReport{}
	if len(skills) == 0 && len(agents) == 0 && len(commands) == 0 {
		return report, nil
	}

	root := StructureRoot(targetDir)
	if err := b.fs.MkdirAll(root, 0755); err != nil {
		return report, fmt.Errorf("failed to create %s: %w", StructureDirName, err)
	}

	for _, skill := range skills {
		if err := b.buildSkill(root, skill, report); err != nil {
			return report, err
		}
	}

	if err := b.writeDocuments(filepath.Join(root, agentsDirName), agents, report); err != nil {
		return report, err
	}
	if err := b.writeDocuments(filepath.Join(root, commandsDirName), commands, report); err != nil {
		return report, err
	}

	settings := Settings{Skills: make([]string, 0, len(skills))}
	for _, skill := range skills {
		settings.Skills = append(settings.Skills, SkillMountPath(skill.Name))
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return report, fmt.Errorf("failed to marshal %s: %w", settingsName, err)
	}
	if err := b.writeFile(filepath.Join(root, settingsName), data, report); err != nil {
		return report, err
	}

	return report, nil
}

// buildSkill writes one skill directory: SKILL.md plus its auxiliary files.
func (b *StructureBuilder) buildSkill(root string, skill model.Resource, report *BuildReport) error {
	if err := b.fs.ValidateIdentifier(skill.Name); err != nil {
		return fmt.Errorf("invalid skill name %q: %w", skill.Name, err)
	}

	skillDir := filepath.Join(root, skillsDirName, skill.Name)
	if err := b.fs.MkdirAll(skillDir, 0755); err != nil {
		return fmt.Errorf("failed to create skill directory %s: %w", skill.Name, err)
	}
	if err := b.writeFile(filepath.Join(skillDir, skillDocName), []byte(skill.SkillMD), report); err != nil {
		return err
	}

	for _, f := range skill.Files {
		if err := b.fs.ValidateRelPath(f.RelativePath); err != nil {
			return fmt.Errorf("skill %s: %w", skill.Name, err)
		}
		path := filepath.Join(skillDir, filepath.FromSlash(f.RelativePath))
		if err := b.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.RelativePath, err)
		}
		if err := b.writeFile(path, []byte(f.Content), report); err != nil {
			return err
		}
	}
	return nil
}

// writeDocuments writes one <name>.md per resource into dir.
func (b *StructureBuilder) writeDocuments(dir string, docs []model.Resource, report *BuildReport) error {
	if len(docs) == 0 {
		return nil
	}
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dir), err)
	}
	for _, d := range docs {
		if err := b.fs.ValidateIdentifier(d.Name); err != nil {
			return fmt.Errorf("invalid %s name %q: %w", d.Type, d.Name, err)
		}
		if err := b.writeFile(filepath.Join(dir, d.Name+".md"), []byte(d.Content), report); err != nil {
			return err
		}
	}
	return nil
}

// writeFile writes data unless the file already holds exactly data.
func (b *StructureBuilder) writeFile(path string, data []byte, report *BuildReport) error {
	if hash.Matches(b.hasher, path, data) {
		report.Unchanged = append(report.Unchanged, path)
		return nil
	}
	if err := b.fs.WriteFile(path, data, os.FileMode(0644)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	report.Written = append(report.Written, path)
	return nil
}
