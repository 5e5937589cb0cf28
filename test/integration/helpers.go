// Package integration exercises the engine end to end against a real git
// binary and the real filesystem. Tests skip when git is not installed.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danieljhkim/wsforge/internal/clock"
	"github.com/danieljhkim/wsforge/internal/config"
	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/hash"
	"github.com/danieljhkim/wsforge/internal/store"
)

// testEnv is an engine wired to real collaborators under a temp root.
type testEnv struct {
	eng   *engine.Engine
	store *store.FileStore
	paths *config.Paths
	root  string
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func setupTestEngine(t *testing.T) *testEnv {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	paths := config.PathsAt(filepath.Join(root, "home"))
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	fs := fsops.NewRealFS()
	st := store.NewFileStore(fs, paths.DataFile, nil)
	eng := engine.New(st, gitx.NewRealGit("git", 30*time.Second), fs, hash.NewSHA256Hasher(),
		clock.NewSteppingClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.Second), nil, nil)

	return &testEnv{eng: eng, store: st, paths: paths, root: root}
}

// git runs git in dir and returns its trimmed output.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// initRepo creates a repository named name with one commit on main and,
// for each extra branch, one more commit on that branch.
func (env *testEnv) initRepo(t *testing.T, name string, branches ...string) string {
	t.Helper()
	dir := filepath.Join(env.root, "src", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	git(t, dir, "init", "-q")
	git(t, dir, "checkout", "-q", "-b", "main")
	writeFile(t, filepath.Join(dir, "README.md"), name+"\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "initial")

	for _, b := range branches {
		git(t, dir, "checkout", "-q", "-b", b)
		writeFile(t, filepath.Join(dir, b+".txt"), b+"\n")
		git(t, dir, "add", ".")
		git(t, dir, "commit", "-q", "-m", b)
		git(t, dir, "checkout", "-q", "main")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
