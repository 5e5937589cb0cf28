// Package gitx wraps the git operations wsforge needs.
//
// Git is always invoked as a child process with an argument vector and a
// per-call timeout; nothing is ever interpreted by a shell.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every git invocation when none is configured.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when a git invocation exceeds its timeout.
var ErrTimeout = errors.New("git command timed out")

// WorktreeParams describes a linked worktree to create.
type WorktreeParams struct {
	// RepoPath is the source repository
	RepoPath string

	// TargetPath is the directory the worktree is checked out into
	TargetPath string

	// NewBranch is created at BaseBranch and checked out in the worktree
	NewBranch string

	// BaseBranch is the start point of NewBranch
	BaseBranch string
}

// VCS provides an abstraction for version-control operations.
type VCS interface {
	// IsValidRepo reports whether path is inside a git working tree.
	// Any failure is reported as false.
	IsValidRepo(ctx context.Context, path string) bool

	// ListBranches returns local and remote branch short names.
	ListBranches(ctx context.Context, path string) ([]string, error)

	// CreateWorktree runs `git worktree add <target> -b <new> <base>` in the
	// source repository.
	CreateWorktree(ctx context.Context, p WorktreeParams) error
}

// RealGit implements VCS using the git binary.
type RealGit struct {
	binary  string
	timeout time.Duration
}

// NewRealGit creates a RealGit. An empty binary means "git"; a non-positive
// timeout means DefaultTimeout.
func NewRealGit(binary string, timeout time.Duration) *RealGit {
	if binary == "" {
		binary = "git"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RealGit{binary: binary, timeout: timeout}
}

// IsValidRepo reports whether path is inside a git working tree.
func (g *RealGit) IsValidRepo(ctx context.Context, path string) bool {
	out, err := g.run(ctx, path, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// ListBranches returns every branch short name, local first as git prints
// them, skipping symbolic refs such as origin/HEAD.
func (g *RealGit) ListBranches(ctx context.Context, path string) ([]string, error) {
	out, err := g.run(ctx, path, "branch", "--format=%(refname:short)", "-a")
	if err != nil {
		return nil, err
	}
	return parseBranches(out), nil
}

// CreateWorktree creates a linked worktree on a new branch.
func (g *RealGit) CreateWorktree(ctx context.Context, p WorktreeParams) error {
	_, err := g.run(ctx, p.RepoPath, "worktree", "add", p.TargetPath, "-b", p.NewBranch, p.BaseBranch)
	return err
}

// run executes git with args in dir and returns stdout.
func (g *RealGit) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: git %s", ErrTimeout, g.timeout, strings.Join(args, " "))
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

func parseBranches(out string) []string {
	branches := []string{}
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasSuffix(name, "/HEAD") || strings.HasPrefix(name, "(") {
			continue
		}
		branches = append(branches, name)
	}
	return branches
}
