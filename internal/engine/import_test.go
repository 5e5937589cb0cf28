package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsforge/internal/model"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestImportFromFile(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"reviewer.md":  "# Reviewer",
		"deploy.md":    "/deploy",
		"search.json":  `{"mcpServers":{"search":{"command":"s"}}}`,
		"broken.json":  `{"mcpServers":`,
		"array.json":   `[1,2]`,
		"notes.md":     "   ",
		"unknown.yaml": "x: 1",
	})

	agent, err := env.eng.ImportFromFile(model.KindAgent, filepath.Join(dir, "reviewer.md"))
	require.NoError(t, err)
	assert.Equal(t, "reviewer", agent.Name)
	assert.Equal(t, "# Reviewer", agent.Content)

	cmd, err := env.eng.ImportFromFile(model.KindCommand, filepath.Join(dir, "deploy.md"))
	require.NoError(t, err)
	assert.Equal(t, model.KindCommand, cmd.Type)

	mcp, err := env.eng.ImportFromFile(model.KindMCP, filepath.Join(dir, "search.json"))
	require.NoError(t, err)
	assert.Equal(t, "search", mcp.Name)
	assert.Contains(t, mcp.Config, "mcpServers")

	_, err = env.eng.ImportFromFile(model.KindMCP, filepath.Join(dir, "broken.json"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.eng.ImportFromFile(model.KindMCP, filepath.Join(dir, "array.json"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.eng.ImportFromFile(model.KindAgent, filepath.Join(dir, "notes.md"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.eng.ImportFromFile(model.KindSkill, filepath.Join(dir, "reviewer.md"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.eng.ImportFromFile(model.KindAgent, filepath.Join(dir, "absent.md"))
	assert.Error(t, err)

	assert.Len(t, env.eng.ListResources(""), 3)
}

func TestImportSkillDir(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "pdf-tools")
	writeTree(t, dir, map[string]string{
		"SKILL.md":                "---\nname: pdf-tools\n---\n# PDF",
		"scripts/extract.py":      "print('x')",
		"references/api/index.md": "api",
	})

	skill, err := env.eng.ImportSkillDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "pdf-tools", skill.Name)
	assert.Equal(t, "---\nname: pdf-tools\n---\n# PDF", skill.SkillMD)
	assert.ElementsMatch(t, []model.SkillFile{
		{RelativePath: "scripts/extract.py", Content: "print('x')"},
		{RelativePath: "references/api/index.md", Content: "api"},
	}, skill.Files)
}

func TestImportSkillDir_RequiresSkillMD(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"README.md": "x"})

	_, err := env.eng.ImportSkillDir(dir)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, env.eng.ListResources(model.KindSkill))
}

func TestImportSkillDir_KeepsNestedSkillMD(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "authoring")
	writeTree(t, dir, map[string]string{
		"SKILL.md":          "# Authoring",
		"examples/SKILL.md": "# Example skill",
	})

	skill, err := env.eng.ImportSkillDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "# Authoring", skill.SkillMD)
	assert.Equal(t, []model.SkillFile{{RelativePath: "examples/SKILL.md", Content: "# Example skill"}}, skill.Files)
}
