package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsforge/internal/clock"
	"github.com/danieljhkim/wsforge/internal/config"
	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/hash"
	"github.com/danieljhkim/wsforge/internal/store"
)

// cliEnv runs commands against an engine backed by a temp store and a fake
// VCS.
type cliEnv struct {
	eng  *engine.Engine
	vcs  *gitx.FakeVCS
	root string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	fs := fsops.NewRealFS()
	vcs := gitx.NewFakeVCS()
	st := store.NewFileStore(fs, filepath.Join(root, "data.json"), nil)
	eng := engine.New(st, vcs, fs, hash.NewSHA256Hasher(), clock.RealClock{}, config.DefaultSettings(), nil)
	return &cliEnv{eng: eng, vcs: vcs, root: root}
}

// run executes args on a fresh command tree and returns stdout and stderr.
func (env *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(func() (*engine.Engine, error) { return env.eng, nil })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

// mustRun is run that fails the test on error.
func (env *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := env.run(t, args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

// repoDir creates a directory registered with the fake VCS.
func (env *cliEnv) repoDir(t *testing.T, name string, branches ...string) string {
	t.Helper()
	path := filepath.Join(env.root, "src", name)
	require.NoError(t, os.MkdirAll(path, 0755))
	env.vcs.AddRepo(path, branches...)
	return path
}

func (env *cliEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(env.root, "input", filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
