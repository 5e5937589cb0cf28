package cli

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/planner"
)

// errApplyFailed is returned when at least one apply step ended in error.
var errApplyFailed = errors.New("apply finished with errors")

// resolutionPrompt asks the user how to handle one conflict class.
type resolutionPrompt func(ct planner.ConflictType, conflicts []planner.Conflict) (planner.Resolution, error)

// surveyPrompt asks with an interactive select.
func surveyPrompt(ct planner.ConflictType, conflicts []planner.Conflict) (planner.Resolution, error) {
	options := make([]string, len(planner.Resolutions))
	for i, r := range planner.Resolutions {
		options[i] = string(r)
	}

	names := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		names = append(names, c.Name)
	}

	var selectedIdx int
	prompt := &survey.Select{
		Message: fmt.Sprintf("%s already exists (%v). How should it be handled?", ct, names),
		Options: options,
		Help:    describeResolutions(ct),
	}
	if err := survey.AskOne(prompt, &selectedIdx); err != nil {
		return "", err
	}
	return planner.Resolutions[selectedIdx], nil
}

func describeResolutions(ct planner.ConflictType) string {
	switch ct {
	case planner.TypeStructureRoot:
		return "merge writes into the existing .claude/, overwrite removes it first, cancel skips the step"
	case planner.TypeMergeConfig:
		return "merge folds the configs into the existing .mcp.json, overwrite replaces it, cancel skips the step"
	default:
		return "existing worktree directories are always skipped"
	}
}

func newConflictsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts <compose> <target-dir>",
		Short: "List the paths an apply would collide with",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			c, err := eng.FindCompose(args[0])
			if err != nil {
				return err
			}
			conflicts, err := eng.CheckConflicts(commandContext(cmd), args[1], c.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), conflicts)
			}
			p := newPrinter(cmd)
			if len(conflicts) == 0 {
				p.Success("No conflicts")
				return nil
			}
			rows := make([][]string, 0, len(conflicts))
			for _, conflict := range conflicts {
				rows = append(rows, []string{string(conflict.Type), conflict.Name, conflict.Path})
			}
			p.Table([]string{"TYPE", "NAME", "PATH"}, rows)
			return nil
		},
	}
}

func newApplyCommand(a *app) *cobra.Command {
	return newApplyCommandWithPrompt(a, surveyPrompt)
}

func newApplyCommandWithPrompt(a *app, ask resolutionPrompt) *cobra.Command {
	var (
		branches    []string
		resolves    []string
		interactive bool
	)

	applyCmd := &cobra.Command{
		Use:   "apply <compose> <target-dir>",
		Short: "Materialize a compose into a target directory",
		Long: `Apply a compose to a target directory: write .claude/ (skills, agents,
commands and settings.json), merge the MCP configs into .mcp.json, and create
one git worktree per repository on a new branch.

Each repository needs a branch name via --branch <repo>=<branch>; repositories
without one are skipped. Existing .claude/ and .mcp.json are handled per
--resolve <class>=<merge|overwrite|cancel>, by prompting with --interactive,
or with the configured default.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			c, err := eng.FindCompose(args[0])
			if err != nil {
				return err
			}

			req := &engine.ApplyRequest{TargetDir: args[1], ComposeID: c.ID}

			if req.BranchNames, err = parseBranchFlags(eng, branches); err != nil {
				return err
			}
			if len(resolves) > 0 {
				if req.Resolutions, err = parseResolveFlags(resolves); err != nil {
					return err
				}
			}
			if interactive {
				if req.Resolutions, err = promptResolutions(cmd, eng, req, ask); err != nil {
					return err
				}
			}

			p := newPrinter(cmd)
			var observer engine.Observer
			if !a.jsonOutput {
				p.Section(fmt.Sprintf("Applying %s to %s", c.Name, args[1]))
				observer = engine.ObserverFunc(func(name string, status engine.StepStatus, message string) {
					printStep(p, name, status, message)
				})
			}

			result := eng.Apply(commandContext(cmd), req, observer)

			if a.jsonOutput {
				if err := outputJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(p.out)
				if result.Success {
					p.Success(fmt.Sprintf("Applied %s", Count(len(result.Steps), "step", "steps")))
				}
			}
			if !result.Success {
				return errApplyFailed
			}
			return nil
		},
	}

	applyCmd.Flags().StringArrayVarP(&branches, "branch", "b", nil, "New branch for a repository as <repo>=<branch> (repeatable)")
	applyCmd.Flags().StringArrayVarP(&resolves, "resolve", "r", nil, "Conflict handling as <structure-root|merge-config>=<merge|overwrite|cancel> (repeatable)")
	applyCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask how to handle each detected conflict")
	return applyCmd
}

func printStep(p *printer, name string, status engine.StepStatus, message string) {
	line := name
	if message != "" {
		line = fmt.Sprintf("%s: %s", name, message)
	}
	switch status {
	case engine.StepRunning:
		p.Progress(line)
	case engine.StepDone:
		p.Success(line)
	case engine.StepSkipped:
		p.Warning(line)
	case engine.StepError:
		p.Error(line)
	}
}

// parseBranchFlags maps <repo>=<branch> values to repo ids.
func parseBranchFlags(eng *engine.Engine, values []string) (map[string]string, error) {
	pairs, err := parseAssignments(values, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		r, err := findResource(eng, model.KindRepo, pair[0])
		if err != nil {
			return nil, err
		}
		out[r.ID] = pair[1]
	}
	return out, nil
}

func parseResolveFlags(values []string) (map[planner.ConflictType]planner.Resolution, error) {
	pairs, err := parseAssignments(values, true)
	if err != nil {
		return nil, err
	}
	out := make(map[planner.ConflictType]planner.Resolution, len(pairs))
	for _, pair := range pairs {
		ct, err := planner.ParseConflictType(pair[0])
		if err != nil {
			return nil, err
		}
		res, err := planner.ParseResolution(pair[1])
		if err != nil {
			return nil, err
		}
		out[ct] = res
	}
	return out, nil
}

// promptResolutions detects conflicts and asks for every class that has no
// resolution yet. Worktree directories are never asked about.
func promptResolutions(cmd *cobra.Command, eng *engine.Engine, req *engine.ApplyRequest, ask resolutionPrompt) (map[planner.ConflictType]planner.Resolution, error) {
	conflicts, err := eng.CheckConflicts(commandContext(cmd), req.TargetDir, req.ComposeID)
	if err != nil {
		return nil, err
	}

	out := make(map[planner.ConflictType]planner.Resolution, len(planner.ConflictTypes))
	for ct, r := range req.Resolutions {
		out[ct] = r
	}

	byClass := make(map[planner.ConflictType][]planner.Conflict)
	for _, c := range conflicts {
		byClass[c.Type] = append(byClass[c.Type], c)
	}
	for _, ct := range planner.ConflictTypes {
		if ct == planner.TypeWorktreeDir || len(byClass[ct]) == 0 {
			continue
		}
		if _, ok := out[ct]; ok {
			continue
		}
		res, err := ask(ct, byClass[ct])
		if err != nil {
			return nil, err
		}
		out[ct] = res
	}
	return out, nil
}
