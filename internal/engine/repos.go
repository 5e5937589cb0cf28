package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/wsforge/internal/model"
)

// AddRepo registers the git working copy at path. The path is made absolute
// and the repo is named after its final element.
func (e *Engine) AddRepo(ctx context.Context, path string) (*model.Resource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: repository path is required", ErrValidation)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	if !e.vcs.IsValidRepo(ctx, abs) {
		return nil, fmt.Errorf("%w: %s is not a valid git repository", ErrValidation, abs)
	}

	name, err := validateResourceName(model.KindRepo, filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	r := e.newResource(model.KindRepo, name)
	r.Path = abs

	err = e.store.Update(func(doc *model.Document) error {
		for _, existing := range doc.Resources {
			if existing.Is(model.KindRepo) && existing.Path == abs {
				return fmt.Errorf("%w: repository %s is already registered", ErrDuplicate, abs)
			}
		}
		doc.Resources = append(doc.Resources, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("repository registered", zap.String("id", r.ID), zap.String("path", abs))
	return &r, nil
}

// ListBranches returns the branches of a registered repo.
func (e *Engine) ListBranches(ctx context.Context, repoID string) ([]string, error) {
	r, err := e.GetResource(repoID)
	if err != nil {
		return nil, err
	}
	if !r.Is(model.KindRepo) {
		return nil, fmt.Errorf("%w: repo %q", ErrNotFound, repoID)
	}
	branches, err := e.vcs.ListBranches(ctx, r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches of %s: %w", r.Name, err)
	}
	return branches, nil
}

// ValidateRepos checks every registered repo concurrently and removes the
// ones that are no longer valid git working copies. Results are in document
// order.
func (e *Engine) ValidateRepos(ctx context.Context) ([]RepoValidation, error) {
	repos := e.load().ResourcesOf(model.KindRepo)
	results := make([]RepoValidation, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.settings.Validate.Concurrency))
	for i, repo := range repos {
		g.Go(func() error {
			valid := e.vcs.IsValidRepo(gctx, repo.Path)
			results[i] = RepoValidation{ID: repo.ID, Name: repo.Name, Path: repo.Path, Valid: valid}
			if !valid {
				results[i].Message = fmt.Sprintf("%s is no longer a valid git repository", repo.Path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var invalid []string
	for _, r := range results {
		if !r.Valid {
			invalid = append(invalid, r.ID)
		}
	}
	if len(invalid) == 0 {
		return results, nil
	}

	err := e.store.Update(func(doc *model.Document) error {
		doc.RemoveResources(invalid...)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("failed to prune invalid repositories: %w", err)
	}
	for _, r := range results {
		if !r.Valid {
			e.logger.Warn("pruned invalid repository", zap.String("id", r.ID), zap.String("path", r.Path))
		}
	}
	return results, nil
}
