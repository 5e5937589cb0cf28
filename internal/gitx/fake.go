package gitx

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FakeVCS implements VCS with predetermined values for testing.
// Paths registered with AddRepo are valid; everything else is not.
type FakeVCS struct {
	mu sync.Mutex

	repos       map[string][]string
	worktreeErr map[string]error

	// CreateDirs makes CreateWorktree create the target directory like git does.
	CreateDirs bool

	validateCalls []string
	worktrees     []WorktreeParams
}

// NewFakeVCS creates an empty FakeVCS.
func NewFakeVCS() *FakeVCS {
	return &FakeVCS{
		repos:       make(map[string][]string),
		worktreeErr: make(map[string]error),
		CreateDirs:  true,
	}
}

// AddRepo registers path as a valid repository with the given branches.
func (f *FakeVCS) AddRepo(path string, branches ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos[path] = branches
}

// RemoveRepo makes path invalid.
func (f *FakeVCS) RemoveRepo(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.repos, path)
}

// FailWorktree makes CreateWorktree for repoPath return err.
func (f *FakeVCS) FailWorktree(repoPath string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.worktreeErr[repoPath] = err
}

// IsValidRepo reports whether path was registered.
func (f *FakeVCS) IsValidRepo(ctx context.Context, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls = append(f.validateCalls, path)
	_, ok := f.repos[path]
	return ok
}

// ListBranches returns the registered branches.
func (f *FakeVCS) ListBranches(ctx context.Context, path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	branches, ok := f.repos[path]
	if !ok {
		return nil, fmt.Errorf("git branch: not a git repository: %s", path)
	}
	return append([]string{}, branches...), nil
}

// CreateWorktree records the call and fails when configured to.
func (f *FakeVCS) CreateWorktree(ctx context.Context, p WorktreeParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.worktrees = append(f.worktrees, p)
	if err, ok := f.worktreeErr[p.RepoPath]; ok {
		return err
	}
	if f.CreateDirs {
		return os.MkdirAll(p.TargetPath, 0755)
	}
	return nil
}

// ValidateCalls returns the paths passed to IsValidRepo.
func (f *FakeVCS) ValidateCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.validateCalls...)
}

// Worktrees returns the recorded CreateWorktree calls.
func (f *FakeVCS) Worktrees() []WorktreeParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]WorktreeParams{}, f.worktrees...)
}
