// Package worktree provisions one linked git worktree per compose repository.
package worktree

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/model"
)

// Status is the result class of a Create call.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome reports what Create did for one repository.
type Outcome struct {
	Status  Status
	Path    string
	Message string
}

// Provisioner creates worktrees under a target root.
type Provisioner struct {
	fs  fsops.FS
	vcs gitx.VCS
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(fs fsops.FS, vcs gitx.VCS) *Provisioner {
	return &Provisioner{fs: fs, vcs: vcs}
}

// Create checks out newBranch, started at baseBranch, into
// targetRoot/<repo.Name>. An existing destination is left alone and reported
// as skipped without consulting git. The source repository is re-validated
// first because it may have moved since it was registered.
func (p *Provisioner) Create(ctx context.Context, targetRoot string, repo model.Resource, newBranch, baseBranch string) Outcome {
	if err := p.fs.ValidateIdentifier(repo.Name); err != nil {
		return Outcome{Status: StatusFailed, Message: fmt.Sprintf("validate: %v", err)}
	}
	path, err := filepath.Abs(filepath.Join(targetRoot, repo.Name))
	if err != nil {
		return Outcome{Status: StatusFailed, Message: fmt.Sprintf("validate: %v", err)}
	}

	exists, err := p.fs.Exists(path)
	if err != nil {
		return Outcome{Status: StatusFailed, Path: path, Message: fmt.Sprintf("validate: %v", err)}
	}
	if exists {
		return Outcome{Status: StatusSkipped, Path: path, Message: "directory already exists"}
	}

	if !p.vcs.IsValidRepo(ctx, repo.Path) {
		return Outcome{Status: StatusFailed, Path: path, Message: fmt.Sprintf("validate: %s is not a valid git repository", repo.Path)}
	}

	if baseBranch == "" {
		baseBranch = "HEAD"
	}
	err = p.vcs.CreateWorktree(ctx, gitx.WorktreeParams{
		RepoPath:   repo.Path,
		TargetPath: path,
		NewBranch:  newBranch,
		BaseBranch: baseBranch,
	})
	if err != nil {
		return Outcome{Status: StatusFailed, Path: path, Message: fmt.Sprintf("worktree: %v", err)}
	}

	return Outcome{Status: StatusCreated, Path: path, Message: fmt.Sprintf("created %s on %s", newBranch, baseBranch)}
}
