package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/watch"
)

func newRepoCommand(a *app) *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage registered git repositories",
	}

	repoCmd.AddCommand(&cobra.Command{
		Use:   "add <path>",
		Short: "Register a git repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := eng.AddRepo(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), r)
			}
			p := newPrinter(cmd)
			p.Success(fmt.Sprintf("Registered repository %s", r.Name))
			p.LabelValue("ID", r.ID)
			p.LabelValue("Path", r.Path)
			return nil
		},
	})

	repoCmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List registered repositories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			return printResources(cmd, a, eng.ListResources(model.KindRepo))
		},
	})

	repoCmd.AddCommand(&cobra.Command{
		Use:   "branches <repo>",
		Short: "List the branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := findResource(eng, model.KindRepo, args[0])
			if err != nil {
				return err
			}
			branches, err := eng.ListBranches(commandContext(cmd), r.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), branches)
			}
			p := newPrinter(cmd)
			if len(branches) == 0 {
				p.EmptyState("No branches")
				return nil
			}
			p.List(branches, 0)
			return nil
		},
	})

	var watchMode bool
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every repository and remove the invalid ones",
		Long: `Check that every registered repository is still a git working copy.
Repositories that are not are removed from the store; composes keep their
references, which then show up as missing.

With --watch the check repeats whenever a repository directory is removed or
renamed, and on the configured validate.interval, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			if err := runValidate(commandContext(cmd), cmd, a, eng); err != nil {
				return err
			}
			if !watchMode {
				return nil
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			paths := func() []string {
				var out []string
				for _, r := range eng.ListResources(model.KindRepo) {
					out = append(out, r.Path)
				}
				return out
			}
			w := watch.NewRepoWatcher(paths, func(ctx context.Context) error {
				return runValidate(ctx, cmd, a, eng)
			}, watch.Options{Interval: eng.Settings().Validate.Interval}, nil)

			if !a.jsonOutput {
				newPrinter(cmd).Info("Watching repositories, press Ctrl+C to stop")
			}
			return w.Run(ctx)
		},
	}
	validateCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Keep validating until interrupted")
	repoCmd.AddCommand(validateCmd)

	return repoCmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, a *app, eng *engine.Engine) error {
	results, err := eng.ValidateRepos(ctx)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return outputJSON(cmd.OutOrStdout(), results)
	}

	p := newPrinter(cmd)
	if len(results) == 0 {
		p.EmptyState("No repositories registered")
		return nil
	}
	removed := 0
	for _, r := range results {
		if r.Valid {
			p.Success(r.Name)
			continue
		}
		removed++
		p.Warning(fmt.Sprintf("%s removed: %s", r.Name, r.Message))
	}
	p.Info(fmt.Sprintf("Checked %s, removed %d", Count(len(results), "repository", "repositories"), removed))
	return nil
}
