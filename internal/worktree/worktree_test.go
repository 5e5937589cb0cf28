package worktree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/model"
)

func repo(name string) model.Resource {
	return model.Resource{ID: "r-" + name, Type: model.KindRepo, Name: name, Path: "/src/" + name}
}

func TestCreate_Created(t *testing.T) {
	target := t.TempDir()
	vcs := gitx.NewFakeVCS()
	vcs.AddRepo("/src/api", "main")

	out := NewProvisioner(fsops.NewRealFS(), vcs).Create(context.Background(), target, repo("api"), "feat-1", "main")

	assert.Equal(t, StatusCreated, out.Status)
	assert.Equal(t, filepath.Join(target, "api"), out.Path)
	require.Len(t, vcs.Worktrees(), 1)
	assert.Equal(t, gitx.WorktreeParams{
		RepoPath:   "/src/api",
		TargetPath: filepath.Join(target, "api"),
		NewBranch:  "feat-1",
		BaseBranch: "main",
	}, vcs.Worktrees()[0])
}

func TestCreate_SkipsExistingWithoutGit(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(target, "api"), 0755))
	vcs := gitx.NewFakeVCS()

	out := NewProvisioner(fsops.NewRealFS(), vcs).Create(context.Background(), target, repo("api"), "feat-1", "main")

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Empty(t, vcs.ValidateCalls(), "existing destination must not consult git")
	assert.Empty(t, vcs.Worktrees())
}

func TestCreate_InvalidSource(t *testing.T) {
	vcs := gitx.NewFakeVCS()

	out := NewProvisioner(fsops.NewRealFS(), vcs).Create(context.Background(), t.TempDir(), repo("gone"), "feat-1", "main")

	assert.Equal(t, StatusFailed, out.Status)
	assert.True(t, strings.HasPrefix(out.Message, "validate: "), out.Message)
	assert.Empty(t, vcs.Worktrees())
}

func TestCreate_VCSFailurePreservesMessage(t *testing.T) {
	vcs := gitx.NewFakeVCS()
	vcs.AddRepo("/src/api", "main")
	vcs.FailWorktree("/src/api", errors.New("fatal: invalid reference: nope"))

	out := NewProvisioner(fsops.NewRealFS(), vcs).Create(context.Background(), t.TempDir(), repo("api"), "feat-1", "nope")

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "worktree: fatal: invalid reference: nope", out.Message)
}

func TestCreate_RejectsUnsafeName(t *testing.T) {
	vcs := gitx.NewFakeVCS()
	out := NewProvisioner(fsops.NewRealFS(), vcs).Create(context.Background(), t.TempDir(), repo(".."), "b", "main")

	assert.Equal(t, StatusFailed, out.Status)
	assert.Empty(t, vcs.ValidateCalls())
}

func TestCreate_RelativeTargetIsMadeAbsolute(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	vcs := gitx.NewFakeVCS()
	vcs.AddRepo("/src/api", "main")

	out := NewProvisioner(fsops.NewRealFS(), vcs).Create(context.Background(), "ws", repo("api"), "feat-1", "main")

	assert.Equal(t, StatusCreated, out.Status)
	assert.Equal(t, filepath.Join(work, "ws", "api"), out.Path)
	require.Len(t, vcs.Worktrees(), 1)
	assert.Equal(t, filepath.Join(work, "ws", "api"), vcs.Worktrees()[0].TargetPath)
}
