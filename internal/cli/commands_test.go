package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/planner"
)

func TestRepoCommands(t *testing.T) {
	env := newCLIEnv(t)
	path := env.repoDir(t, "api", "main", "dev")

	out := env.mustRun(t, "repo", "add", path)
	assert.Contains(t, out, "Registered repository api")

	out = env.mustRun(t, "--json", "repo", "ls")
	var repos []model.Resource
	require.NoError(t, json.Unmarshal([]byte(out), &repos))
	require.Len(t, repos, 1)
	assert.Equal(t, path, repos[0].Path)

	out = env.mustRun(t, "--json", "repo", "branches", "api")
	var branches []string
	require.NoError(t, json.Unmarshal([]byte(out), &branches))
	assert.Equal(t, []string{"main", "dev"}, branches)

	_, _, err := env.run(t, "repo", "add", path)
	assert.ErrorIs(t, err, engine.ErrDuplicate)

	env.vcs.RemoveRepo(path)
	out = env.mustRun(t, "repo", "validate")
	assert.Contains(t, out, "api removed")
	assert.Empty(t, env.eng.ListResources(model.KindRepo))
}

func TestResourceCommands(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "agent", "add", "reviewer", "--content", "# Reviewer\nChecks diffs")
	cmdFile := env.writeFile(t, "deploy.md", "/deploy now")
	env.mustRun(t, "command", "import", cmdFile)
	env.mustRun(t, "mcp", "add", "search", "--config", `{"mcpServers":{"search":{"command":"s"}}}`)

	skillMD := env.writeFile(t, "lint/SKILL.md", "---\nname: lint\ndescription: Lints the code\n---\n# Lint")
	ref := env.writeFile(t, "lint-ref.md", "rules")
	env.mustRun(t, "skill", "add", "lint", "--skill-md", skillMD, "--file", "references/rules.md="+ref)

	out := env.mustRun(t, "resource", "ls")
	assert.Contains(t, out, "reviewer")
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "Lints the code", "skills show their frontmatter description")

	out = env.mustRun(t, "--json", "resource", "ls", "--kind", "skill")
	var skills []model.Resource
	require.NoError(t, json.Unmarshal([]byte(out), &skills))
	require.Len(t, skills, 1)
	assert.Equal(t, []model.SkillFile{{RelativePath: "references/rules.md", Content: "rules"}}, skills[0].Files)

	out = env.mustRun(t, "resource", "show", "lint")
	assert.Contains(t, out, ".claude/.skills/lint")
	assert.Contains(t, out, "references/rules.md")

	env.mustRun(t, "resource", "rm", "reviewer")
	_, _, err := env.run(t, "resource", "show", "reviewer")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, _, err = env.run(t, "agent", "add", "x")
	assert.ErrorContains(t, err, "--content or --from")
	_, _, err = env.run(t, "mcp", "add", "bad", "--config", "[1]")
	assert.Error(t, err)
	_, _, err = env.run(t, "resource", "ls", "--kind", "plugin")
	assert.Error(t, err)
}

func TestSkillImportCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.writeFile(t, "pdf/SKILL.md", "# PDF")
	env.writeFile(t, "pdf/scripts/run.sh", "echo")

	out := env.mustRun(t, "--json", "skill", "import", filepath.Join(env.root, "input", "pdf"))
	var r model.Resource
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "pdf", r.Name)
	assert.Equal(t, []model.SkillFile{{RelativePath: "scripts/run.sh", Content: "echo"}}, r.Files)
}

func TestComposeCommands(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "repo", "add", env.repoDir(t, "api", "main"))
	env.mustRun(t, "agent", "add", "reviewer", "--content", "x")
	env.mustRun(t, "mcp", "add", "search", "--config", `{}`)

	out := env.mustRun(t, "--json", "compose", "create", "backend", "--repo", "api=dev", "--agent", "reviewer")
	var c model.Compose
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	require.Len(t, c.Repos, 1)
	assert.Equal(t, "dev", c.Repos[0].BaseBranch)
	assert.Len(t, c.AgentIDs, 1)

	_, _, err := env.run(t, "compose", "create", "backend")
	assert.ErrorIs(t, err, engine.ErrDuplicate)
	_, _, err = env.run(t, "compose", "create", "other", "--agent", "ghost")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	// Only the given lists change.
	env.mustRun(t, "compose", "update", "backend", "--mcp", "search", "--name", "api-stack")
	got, err := env.eng.FindCompose("api-stack")
	require.NoError(t, err)
	assert.Len(t, got.Repos, 1)
	assert.Len(t, got.AgentIDs, 1)
	assert.Len(t, got.MCPIDs, 1)

	out = env.mustRun(t, "compose", "ls")
	assert.Contains(t, out, "api-stack")

	out = env.mustRun(t, "compose", "show", "api-stack")
	assert.Contains(t, out, "api (from dev)")
	assert.Contains(t, out, "reviewer")

	out = env.mustRun(t, "compose", "validate", "api-stack")
	assert.Contains(t, out, "All references")

	env.mustRun(t, "resource", "rm", "reviewer")
	out = env.mustRun(t, "compose", "show", "api-stack")
	assert.Contains(t, out, "[missing")
	out = env.mustRun(t, "--json", "compose", "validate", "api-stack")
	var v model.ReferenceValidation
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.Valid)
	assert.Len(t, v.MissingAgents, 1)

	env.mustRun(t, "compose", "rm", "api-stack")
	assert.Empty(t, env.eng.ListComposes())
}

func TestApplyCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "repo", "add", env.repoDir(t, "api", "main"))
	env.mustRun(t, "repo", "add", env.repoDir(t, "web", "main"))
	env.mustRun(t, "agent", "add", "reviewer", "--content", "# r")
	env.mustRun(t, "mcp", "add", "search", "--config", `{"mcpServers":{"search":{"command":"s"}}}`)
	env.mustRun(t, "compose", "create", "stack", "--repo", "api=main", "--repo", "web", "--agent", "reviewer", "--mcp", "search")

	target := filepath.Join(env.root, "ws")
	out := env.mustRun(t, "conflicts", "stack", target)
	assert.Contains(t, out, "No conflicts")

	out = env.mustRun(t, "apply", "stack", target, "--branch", "api=feat/x")
	assert.Contains(t, out, "Applying stack")
	assert.Contains(t, out, "worktree: web")

	data, err := os.ReadFile(filepath.Join(target, ".claude", "agents", "reviewer.md"))
	require.NoError(t, err)
	assert.Equal(t, "# r", string(data))
	assert.FileExists(t, filepath.Join(target, ".mcp.json"))
	assert.DirExists(t, filepath.Join(target, "api"))
	assert.NoDirExists(t, filepath.Join(target, "web"), "repo without a branch is skipped")

	out = env.mustRun(t, "--json", "conflicts", "stack", target)
	var conflicts []planner.Conflict
	require.NoError(t, json.Unmarshal([]byte(out), &conflicts))
	assert.Equal(t, []planner.ConflictType{planner.TypeStructureRoot, planner.TypeMergeConfig, planner.TypeWorktreeDir},
		planner.Classes(conflicts))

	out = env.mustRun(t, "--json", "apply", "stack", target, "--resolve", "structure-root=cancel", "--resolve", "merge-config=overwrite")
	var result engine.ApplyResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, engine.StepSkipped, result.Step(engine.StepStructure).Status)
	assert.Equal(t, engine.StepDone, result.Step(engine.StepMergeConfig).Status)
}

func TestApplyCommand_FailureReturnsError(t *testing.T) {
	env := newCLIEnv(t)
	path := env.repoDir(t, "api", "main")
	env.mustRun(t, "repo", "add", path)
	env.mustRun(t, "compose", "create", "stack", "--repo", "api")
	env.vcs.FailWorktree(path, errors.New("boom"))

	out, _, err := env.run(t, "--json", "apply", "stack", filepath.Join(env.root, "ws"), "--branch", "api=b")
	assert.ErrorIs(t, err, errApplyFailed)

	var result engine.ApplyResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.Equal(t, engine.StepError, result.Step(engine.WorktreeStepName("api")).Status)
}

func TestApplyCommand_InvalidFlags(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "compose", "create", "stack")
	target := filepath.Join(env.root, "ws")

	tests := [][]string{
		{"apply", "stack", target, "--resolve", "structure-root=maybe"},
		{"apply", "stack", target, "--resolve", "everything=merge"},
		{"apply", "stack", target, "--branch", "ghost=b"},
		{"apply", "stack", target, "--branch", "nobranch"},
		{"apply", "missing", target},
	}
	for _, args := range tests {
		_, _, err := env.run(t, args...)
		assert.Error(t, err, "%v", args)
	}
	assert.NoDirExists(t, target)
}

func TestPromptResolutions(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "repo", "add", env.repoDir(t, "api", "main"))
	env.mustRun(t, "agent", "add", "reviewer", "--content", "x")
	env.mustRun(t, "mcp", "add", "search", "--config", `{}`)
	env.mustRun(t, "compose", "create", "stack", "--repo", "api", "--agent", "reviewer", "--mcp", "search")
	c, err := env.eng.FindCompose("stack")
	require.NoError(t, err)

	target := filepath.Join(env.root, "ws")
	require.NoError(t, os.MkdirAll(filepath.Join(target, ".claude"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "api"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, ".mcp.json"), []byte(`{}`), 0644))

	var asked []planner.ConflictType
	ask := func(ct planner.ConflictType, conflicts []planner.Conflict) (planner.Resolution, error) {
		asked = append(asked, ct)
		require.NotEmpty(t, conflicts)
		return planner.ResolutionOverwrite, nil
	}

	root := newRootCommand(func() (*engine.Engine, error) { return env.eng, nil })
	req := &engine.ApplyRequest{
		TargetDir:   target,
		ComposeID:   c.ID,
		Resolutions: map[planner.ConflictType]planner.Resolution{planner.TypeMergeConfig: planner.ResolutionCancel},
	}
	got, err := promptResolutions(root, env.eng, req, ask)
	require.NoError(t, err)

	assert.Equal(t, []planner.ConflictType{planner.TypeStructureRoot}, asked, "explicit and worktree classes are not asked")
	assert.Equal(t, planner.ResolutionOverwrite, got[planner.TypeStructureRoot])
	assert.Equal(t, planner.ResolutionCancel, got[planner.TypeMergeConfig])

	cancelled := errors.New("interrupted")
	_, err = promptResolutions(root, env.eng, &engine.ApplyRequest{TargetDir: target, ComposeID: c.ID},
		func(planner.ConflictType, []planner.Conflict) (planner.Resolution, error) { return "", cancelled })
	assert.ErrorIs(t, err, cancelled)
}

func TestApplyCommand_Interactive(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "agent", "add", "reviewer", "--content", "new")
	env.mustRun(t, "compose", "create", "stack", "--agent", "reviewer")
	target := filepath.Join(env.root, "ws")
	stale := filepath.Join(target, ".claude", "stale.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	a := &app{newEngine: func() (*engine.Engine, error) { return env.eng, nil }}
	cmd := newApplyCommandWithPrompt(a, func(planner.ConflictType, []planner.Conflict) (planner.Resolution, error) {
		return planner.ResolutionOverwrite, nil
	})
	cmd.SetArgs([]string{"stack", target, "--interactive"})
	cmd.SetOut(new(discard))
	cmd.SetErr(new(discard))
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	assert.NoFileExists(t, stale, "overwrite removed the old structure")
	assert.FileExists(t, filepath.Join(target, ".claude", "agents", "reviewer.md"))
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
