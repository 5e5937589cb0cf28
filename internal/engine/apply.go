package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsforge/internal/builder"
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/planner"
	"github.com/danieljhkim/wsforge/internal/worktree"
)

// StepPrepareTarget reports a target directory that could not be created.
const StepPrepareTarget = "prepare target"

// applyInputs are the live resources of a compose, split by kind.
type applyInputs struct {
	detail   *model.ComposeDetail
	skills   []model.Resource
	agents   []model.Resource
	commands []model.Resource
	mcps     []model.Resource
	repos    []model.ResolvedRepo
}

func (in *applyInputs) hasStructure() bool {
	return len(in.skills) > 0 || len(in.agents) > 0 || len(in.commands) > 0
}

func (in *applyInputs) hasMergeConfig() bool {
	return len(in.mcps) > 0
}

func (in *applyInputs) repoResources() []model.Resource {
	out := make([]model.Resource, 0, len(in.repos))
	for _, r := range in.repos {
		out = append(out, r.Resource)
	}
	return out
}

// loadInputs resolves composeID against the current document. Dangling
// references are dropped; only a missing compose is an error.
func (e *Engine) loadInputs(composeID string) (*applyInputs, error) {
	doc := e.load()
	idx := doc.FindCompose(composeID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: compose %q", ErrNotFound, composeID)
	}

	detail := model.Resolve(doc, &doc.Composes[idx])
	return &applyInputs{
		detail:   detail,
		skills:   model.Live(detail.Skills),
		agents:   model.Live(detail.Agents),
		commands: model.Live(detail.Commands),
		mcps:     model.Live(detail.MCPs),
		repos:    detail.LiveRepos(),
	}, nil
}

// Algorithm steps:
// 1. Resolve the compose (missing -> "load compose" error)
// 2. Settle conflict resolutions (strict mode may abort here)
// 3. Create the target directory
// 4. Build .claude/ (failure aborts the run)
// 5. Write .mcp.json (failure is recorded, run continues)
// 6. Provision one worktree per live repo (each independent)
// 7. Return the accumulated steps
//
// Apply never returns an error; every failure is a step in the result.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest, observer Observer) (result *ApplyResult) {
	rec := newStepRecorder(observer, e.logger)
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("apply panicked", zap.Any("panic", p), zap.Stack("stack"))
			rec.emit(StepUnexpectedError, StepError, fmt.Sprint(p))
			result = rec.result()
		}
	}()

	in, err := e.loadInputs(req.ComposeID)
	if err != nil {
		rec.emit(StepLoadCompose, StepError, err.Error())
		return rec.result()
	}

	// git resolves a relative worktree path against the source repo, so the
	// target is pinned to the process working directory up front.
	targetDir, err := absTarget(req.TargetDir)
	if err != nil {
		rec.emit(StepPrepareTarget, StepError, err.Error())
		return rec.result()
	}
	pinned := *req
	pinned.TargetDir = targetDir
	req = &pinned

	resolutions, err := e.settleResolutions(req, in)
	if err != nil {
		rec.emit(StepConflictCheck, StepError, err.Error())
		return rec.result()
	}

	if strings.TrimSpace(req.TargetDir) == "" {
		rec.emit(StepPrepareTarget, StepError, "target directory is required")
		return rec.result()
	}
	if err := e.fs.MkdirAll(req.TargetDir, 0755); err != nil {
		rec.emit(StepPrepareTarget, StepError, fmt.Sprintf("failed to create target directory: %v", err))
		return rec.result()
	}

	e.logger.Info("applying compose",
		zap.String("compose", in.detail.Compose.Name),
		zap.String("target", req.TargetDir),
		zap.Int("skills", len(in.skills)),
		zap.Int("agents", len(in.agents)),
		zap.Int("commands", len(in.commands)),
		zap.Int("mcps", len(in.mcps)),
		zap.Int("repos", len(in.repos)))

	if in.hasStructure() {
		if ok := e.applyStructure(req.TargetDir, in, resolutions[planner.TypeStructureRoot], rec); !ok {
			return rec.result()
		}
	}

	if in.hasMergeConfig() {
		e.applyMergeConfig(req.TargetDir, in, resolutions[planner.TypeMergeConfig], rec)
	}

	for _, repo := range in.repos {
		e.applyWorktree(ctx, req, repo, rec)
	}

	return rec.result()
}

// applyStructure runs the .claude/ step. It returns false when the run must
// stop.
func (e *Engine) applyStructure(targetDir string, in *applyInputs, res planner.Resolution, rec *stepRecorder) bool {
	rec.emit(StepStructure, StepRunning, "")

	root := builder.StructureRoot(targetDir)
	exists, err := e.fs.Exists(root)
	if err != nil {
		rec.emit(StepStructure, StepError, fmt.Sprintf("filesystem error: %v", err))
		return false
	}

	message := ""
	if exists {
		switch res {
		case planner.ResolutionCancel:
			rec.emit(StepStructure, StepSkipped, "cancelled by user")
			return true
		case planner.ResolutionOverwrite:
			if err := e.fs.RemoveAll(root); err != nil {
				rec.emit(StepStructure, StepError, fmt.Sprintf("filesystem error: %v", err))
				return false
			}
		default:
			message = "merged"
		}
	}

	report, err := e.structure.Build(targetDir, in.skills, in.agents, in.commands)
	if err != nil {
		rec.emit(StepStructure, StepError, fmt.Sprintf("filesystem error: %v", err))
		return false
	}
	e.logger.Debug("structure built",
		zap.Int("written", len(report.Written)),
		zap.Int("unchanged", len(report.Unchanged)))

	rec.emit(StepStructure, StepDone, message)
	return true
}

// applyMergeConfig runs the .mcp.json step. Failures never stop the run.
func (e *Engine) applyMergeConfig(targetDir string, in *applyInputs, res planner.Resolution, rec *stepRecorder) {
	rec.emit(StepMergeConfig, StepRunning, "")

	exists, err := e.fs.Exists(builder.MCPPath(targetDir))
	if err != nil {
		rec.emit(StepMergeConfig, StepError, err.Error())
		return
	}

	message := ""
	if exists {
		switch res {
		case planner.ResolutionCancel:
			rec.emit(StepMergeConfig, StepSkipped, "cancelled by user")
			return
		case planner.ResolutionOverwrite:
			err = e.mcp.Write(targetDir, in.mcps)
		default:
			err = e.mcp.WriteMerged(targetDir, in.mcps)
			message = "merged"
		}
	} else {
		err = e.mcp.Write(targetDir, in.mcps)
	}

	if err != nil {
		rec.emit(StepMergeConfig, StepError, err.Error())
		return
	}
	rec.emit(StepMergeConfig, StepDone, message)
}

// applyWorktree runs the worktree step for one repo.
func (e *Engine) applyWorktree(ctx context.Context, req *ApplyRequest, repo model.ResolvedRepo, rec *stepRecorder) {
	name := WorktreeStepName(repo.Name)
	rec.emit(name, StepRunning, "")

	branch := strings.TrimSpace(req.BranchNames[repo.ID])
	if branch == "" {
		rec.emit(name, StepSkipped, "no branch name specified")
		return
	}

	out := e.worktrees.Create(ctx, req.TargetDir, repo.Resource, branch, repo.BaseBranch)
	switch out.Status {
	case worktree.StatusCreated:
		rec.emit(name, StepDone, out.Message)
	case worktree.StatusSkipped:
		rec.emit(name, StepSkipped, out.Message)
	default:
		rec.emit(name, StepError, out.Message)
	}
}
