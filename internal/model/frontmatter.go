package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkillFrontmatter is the optional YAML header of a SKILL.md document.
type SkillFrontmatter struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	License      string            `yaml:"license,omitempty"`
	AllowedTools string            `yaml:"allowed-tools,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
}

const frontmatterFence = "---"

// ParseSkillFrontmatter parses the YAML block between leading "---" fences.
// A document without frontmatter yields (nil, nil).
func ParseSkillFrontmatter(skillMD string) (*SkillFrontmatter, error) {
	text := strings.ReplaceAll(skillMD, "\r\n", "\n")
	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return nil, nil
	}

	rest := text[len(frontmatterFence)+1:]
	var block string
	switch {
	case strings.HasPrefix(rest, frontmatterFence+"\n") || rest == frontmatterFence:
		block = ""
	default:
		end := strings.Index(rest, "\n"+frontmatterFence+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontmatterFence) {
				return nil, fmt.Errorf("unterminated frontmatter")
			}
			end = len(rest) - len(frontmatterFence) - 1
		}
		block = rest[:end]
	}

	var fm SkillFrontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	return &fm, nil
}
