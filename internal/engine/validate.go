package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/model"
)

// validateResourceName trims name and checks it can be used as a file name.
func validateResourceName(kind model.Kind, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s name is required", ErrValidation, kind)
	}
	if err := fsops.ValidateIdentifier(trimmed); err != nil {
		return "", fmt.Errorf("%w: %s name %q: %v", ErrValidation, kind, trimmed, err)
	}
	return trimmed, nil
}

func validateSkillInput(in SkillInput) (string, []model.SkillFile, error) {
	name, err := validateResourceName(model.KindSkill, in.Name)
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(in.SkillMD) == "" {
		return "", nil, fmt.Errorf("%w: SKILL.md content is required", ErrValidation)
	}
	if _, err := model.ParseSkillFrontmatter(in.SkillMD); err != nil {
		return "", nil, fmt.Errorf("%w: SKILL.md: %v", ErrValidation, err)
	}

	files := make([]model.SkillFile, 0, len(in.Files))
	seen := make(map[string]bool, len(in.Files))
	for _, f := range in.Files {
		rel := filepath.ToSlash(filepath.Clean(filepath.FromSlash(f.RelativePath)))
		if err := fsops.ValidateRelPath(f.RelativePath); err != nil {
			return "", nil, fmt.Errorf("%w: skill file: %v", ErrValidation, err)
		}
		if rel == "SKILL.md" {
			return "", nil, fmt.Errorf("%w: skill file %q would replace SKILL.md", ErrValidation, f.RelativePath)
		}
		if seen[rel] {
			return "", nil, fmt.Errorf("%w: duplicate skill file %q", ErrValidation, rel)
		}
		seen[rel] = true
		files = append(files, model.SkillFile{RelativePath: rel, Content: f.Content})
	}
	return name, files, nil
}

func validateDocumentInput(kind model.Kind, in DocumentInput) (string, error) {
	name, err := validateResourceName(kind, in.Name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Content) == "" {
		return "", fmt.Errorf("%w: %s content is required", ErrValidation, kind)
	}
	return name, nil
}

func validateMCPInput(in MCPInput) (string, error) {
	name, err := validateResourceName(model.KindMCP, in.Name)
	if err != nil {
		return "", err
	}
	if in.Config == nil {
		return "", fmt.Errorf("%w: mcp config must be a JSON object", ErrValidation)
	}
	return name, nil
}

func validateComposeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: compose name is required", ErrValidation)
	}
	return trimmed, nil
}
