package engine

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/wsforge/internal/model"
)

const skillDocName = "SKILL.md"

// ImportFromFile creates an agent, command or MCP config from a file. The
// resource is named after the file without its extension. Agents and
// commands take the file as markdown; MCP configs must be a JSON object.
func (e *Engine) ImportFromFile(kind model.Kind, path string) (*model.Resource, error) {
	switch kind {
	case model.KindAgent, model.KindCommand, model.KindMCP:
	default:
		return nil, fmt.Errorf("%w: file import does not support %s resources", ErrValidation, kind)
	}

	data, err := e.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	switch kind {
	case model.KindAgent:
		return e.CreateAgent(DocumentInput{Name: name, Content: string(data)})
	case model.KindCommand:
		return e.CreateCommand(DocumentInput{Name: name, Content: string(data)})
	default:
		var config map[string]any
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%w: %s is not a JSON object: %v", ErrValidation, path, err)
		}
		return e.CreateMCP(MCPInput{Name: name, Config: config})
	}
}

// ImportSkillDir creates a skill from a directory holding SKILL.md. Every
// other regular file below the directory becomes an auxiliary skill file.
func (e *Engine) ImportSkillDir(dir string) (*model.Resource, error) {
	skillPath := filepath.Join(dir, skillDocName)
	exists, err := e.fs.Exists(skillPath)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", dir, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s has no %s", ErrValidation, dir, skillDocName)
	}

	skillMD, err := e.fs.ReadFile(skillPath)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", dir, err)
	}

	files := []model.SkillFile{}
	if err := e.collectSkillFiles(dir, dir, &files); err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", dir, err)
	}

	name := filepath.Base(filepath.Clean(dir))
	return e.CreateSkill(SkillInput{Name: name, SkillMD: string(skillMD), Files: files})
}

// collectSkillFiles walks current recursively, appending every regular file
// except the root SKILL.md with a slash-separated path relative to base.
func (e *Engine) collectSkillFiles(base, current string, files *[]model.SkillFile) error {
	entries, err := e.fs.ReadDir(current)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		full := filepath.Join(current, entry.Name())
		switch {
		case entry.IsDir():
			if err := e.collectSkillFiles(base, full, files); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			rel, err := filepath.Rel(base, full)
			if err != nil {
				return err
			}
			if rel == skillDocName {
				continue
			}
			content, err := e.fs.ReadFile(full)
			if err != nil {
				return err
			}
			*files = append(*files, model.SkillFile{RelativePath: filepath.ToSlash(rel), Content: string(content)})
		}
	}
	return nil
}
