package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsforge/internal/clock"
	"github.com/danieljhkim/wsforge/internal/config"
	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/hash"
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/store"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	eng    *Engine
	vcs    *gitx.FakeVCS
	store  *store.FileStore
	target string
	src    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithSettings(t, config.DefaultSettings())
}

func newTestEnvWithSettings(t *testing.T, settings *config.Settings) *testEnv {
	t.Helper()
	root := t.TempDir()
	fs := fsops.NewRealFS()
	st := store.NewFileStore(fs, filepath.Join(root, "data", "data.json"), nil)
	vcs := gitx.NewFakeVCS()

	eng := New(st, vcs, fs, hash.NewSHA256Hasher(), clock.NewSteppingClock(epoch, time.Second), settings, nil)
	var n int
	var mu sync.Mutex
	eng.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%02d", n)
	}

	return &testEnv{
		eng:    eng,
		vcs:    vcs,
		store:  st,
		target: filepath.Join(root, "target"),
		src:    filepath.Join(root, "src"),
	}
}

// addRepo registers a fake repository named name.
func (env *testEnv) addRepo(t *testing.T, name string) *model.Resource {
	t.Helper()
	path := filepath.Join(env.src, name)
	require.NoError(t, os.MkdirAll(path, 0755))
	env.vcs.AddRepo(path, "main")
	r, err := env.eng.AddRepo(t.Context(), path)
	require.NoError(t, err)
	return r
}

func (env *testEnv) addSkill(t *testing.T, name string) *model.Resource {
	t.Helper()
	r, err := env.eng.CreateSkill(SkillInput{
		Name:    name,
		SkillMD: "---\nname: " + name + "\n---\n# " + name,
		Files:   []model.SkillFile{{RelativePath: "references/notes.md", Content: "notes"}},
	})
	require.NoError(t, err)
	return r
}

func (env *testEnv) addAgent(t *testing.T, name string) *model.Resource {
	t.Helper()
	r, err := env.eng.CreateAgent(DocumentInput{Name: name, Content: "# " + name})
	require.NoError(t, err)
	return r
}

func (env *testEnv) addCommand(t *testing.T, name string) *model.Resource {
	t.Helper()
	r, err := env.eng.CreateCommand(DocumentInput{Name: name, Content: "/" + name})
	require.NoError(t, err)
	return r
}

func (env *testEnv) addMCP(t *testing.T, name string) *model.Resource {
	t.Helper()
	r, err := env.eng.CreateMCP(MCPInput{Name: name, Config: map[string]any{
		"mcpServers": map[string]any{name: map[string]any{"command": name}},
	}})
	require.NoError(t, err)
	return r
}

func (env *testEnv) compose(t *testing.T, in ComposeInput) *model.Compose {
	t.Helper()
	if in.Name == "" {
		in.Name = "main"
	}
	c, err := env.eng.CreateCompose(in)
	require.NoError(t, err)
	return c
}

// recorder is an Observer that keeps every notification.
type recorder struct {
	mu     sync.Mutex
	events []StepResult
}

func (r *recorder) OnStep(name string, status StepStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, StepResult{Name: name, Status: status, Message: message})
}

func (r *recorder) statuses(name string) []StepStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StepStatus
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e.Status)
		}
	}
	return out
}

func stepNames(res *ApplyResult) []string {
	names := make([]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		names = append(names, s.Name)
	}
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
