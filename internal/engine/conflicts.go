package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsforge/internal/planner"
)

// CheckConflicts reports the paths in targetDir that applying composeID
// would collide with. Only live references are considered.
func (e *Engine) CheckConflicts(ctx context.Context, targetDir, composeID string) ([]planner.Conflict, error) {
	in, err := e.loadInputs(composeID)
	if err != nil {
		return nil, err
	}
	targetDir, err = absTarget(targetDir)
	if err != nil {
		return nil, err
	}
	return e.detect(targetDir, in)
}

// absTarget makes a non-empty target directory absolute. An empty one is
// returned as is and rejected later.
func absTarget(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve target directory %q: %w", dir, err)
	}
	return abs, nil
}

func (e *Engine) detect(targetDir string, in *applyInputs) ([]planner.Conflict, error) {
	conflicts, err := e.detector.Check(targetDir, in.hasStructure(), in.hasMergeConfig(), in.repoResources())
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return conflicts, nil
}

// settleResolutions returns a resolution for every conflict class. Explicit
// choices from req win; the rest use the configured default. Detection runs
// when the caller supplied no resolutions or strict mode is on, and in strict
// mode any detected conflict without an explicit choice is an error.
func (e *Engine) settleResolutions(req *ApplyRequest, in *applyInputs) (map[planner.ConflictType]planner.Resolution, error) {
	def := e.settings.DefaultResolution()
	out := make(map[planner.ConflictType]planner.Resolution, len(planner.ConflictTypes))
	for _, ct := range planner.ConflictTypes {
		out[ct] = def
		if r, ok := req.Resolutions[ct]; ok && r != "" {
			out[ct] = r
		}
	}

	strict := e.settings.Apply.StrictConflicts
	if req.Resolutions != nil && !strict {
		return out, nil
	}
	if strings.TrimSpace(req.TargetDir) == "" {
		return out, nil
	}

	conflicts, err := e.detect(req.TargetDir, in)
	if err != nil {
		return nil, err
	}

	var unresolved []string
	for _, c := range conflicts {
		if _, ok := req.Resolutions[c.Type]; ok {
			continue
		}
		e.logger.Warn("conflict detected",
			zap.String("type", string(c.Type)),
			zap.String("path", c.Path),
			zap.String("resolution", string(out[c.Type])))
		unresolved = append(unresolved, c.Name)
	}

	if strict && len(unresolved) > 0 {
		return nil, fmt.Errorf("%w: no resolution for %s", ErrConflict, strings.Join(unresolved, ", "))
	}
	return out, nil
}
