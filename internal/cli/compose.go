package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/model"
)

// composeFlags are the reference flags shared by compose create and update.
type composeFlags struct {
	repos    []string
	skills   []string
	agents   []string
	commands []string
	mcps     []string
}

func (f *composeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.repos, "repo", nil, "Repository as <repo>[=<base-branch>] (repeatable)")
	cmd.Flags().StringArrayVar(&f.skills, "skill", nil, "Skill id or name (repeatable)")
	cmd.Flags().StringArrayVar(&f.agents, "agent", nil, "Agent id or name (repeatable)")
	cmd.Flags().StringArrayVar(&f.commands, "command", nil, "Command id or name (repeatable)")
	cmd.Flags().StringArrayVar(&f.mcps, "mcp", nil, "MCP config id or name (repeatable)")
}

// apply resolves the flags into in. With onlyChanged set, lists whose flag
// was not given keep the value already in in.
func (f *composeFlags) apply(cmd *cobra.Command, eng *engine.Engine, in *engine.ComposeInput, onlyChanged bool) error {
	use := func(name string) bool {
		return !onlyChanged || cmd.Flags().Changed(name)
	}

	if use("repo") {
		pairs, err := parseAssignments(f.repos, false)
		if err != nil {
			return err
		}
		in.Repos = make([]model.ComposeRepo, 0, len(pairs))
		for _, pair := range pairs {
			r, err := findResource(eng, model.KindRepo, pair[0])
			if err != nil {
				return err
			}
			in.Repos = append(in.Repos, model.ComposeRepo{RepoID: r.ID, BaseBranch: pair[1]})
		}
	}

	lists := []struct {
		flag string
		kind model.Kind
		refs []string
		dst  *[]string
	}{
		{"skill", model.KindSkill, f.skills, &in.SkillIDs},
		{"agent", model.KindAgent, f.agents, &in.AgentIDs},
		{"command", model.KindCommand, f.commands, &in.CommandIDs},
		{"mcp", model.KindMCP, f.mcps, &in.MCPIDs},
	}
	for _, l := range lists {
		if !use(l.flag) {
			continue
		}
		ids, err := resolveIDs(eng, l.kind, l.refs)
		if err != nil {
			return err
		}
		*l.dst = ids
	}
	return nil
}

func newComposeCommand(a *app) *cobra.Command {
	composeCmd := &cobra.Command{
		Use:   "compose",
		Short: "Manage composes",
		Long: `A compose is a named bundle of repositories, skills, agents, commands and
MCP configs that can be applied to a target directory.`,
	}

	var createFlags composeFlags
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a compose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			in := engine.ComposeInput{Name: args[0]}
			if err := createFlags.apply(cmd, eng, &in, false); err != nil {
				return err
			}
			c, err := eng.CreateCompose(in)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), c)
			}
			p := newPrinter(cmd)
			p.Success(fmt.Sprintf("Created compose %s", c.Name))
			p.LabelValue("ID", c.ID)
			return nil
		},
	}
	createFlags.register(createCmd)
	composeCmd.AddCommand(createCmd)

	var updateFlags composeFlags
	var rename string
	updateCmd := &cobra.Command{
		Use:   "update <compose>",
		Short: "Change the name or references of a compose",
		Long: `Change a compose. Only the reference lists whose flags are given are
replaced; the others are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			c, err := eng.FindCompose(args[0])
			if err != nil {
				return err
			}
			in := engine.ComposeInput{
				Name:       c.Name,
				Repos:      c.Repos,
				SkillIDs:   c.SkillIDs,
				AgentIDs:   c.AgentIDs,
				CommandIDs: c.CommandIDs,
				MCPIDs:     c.MCPIDs,
			}
			if cmd.Flags().Changed("name") {
				in.Name = rename
			}
			if err := updateFlags.apply(cmd, eng, &in, true); err != nil {
				return err
			}
			updated, err := eng.UpdateCompose(c.ID, in)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), updated)
			}
			newPrinter(cmd).Success(fmt.Sprintf("Updated compose %s", updated.Name))
			return nil
		},
	}
	updateCmd.Flags().StringVar(&rename, "name", "", "New compose name")
	updateFlags.register(updateCmd)
	composeCmd.AddCommand(updateCmd)

	composeCmd.AddCommand(&cobra.Command{
		Use:     "rm <compose>",
		Aliases: []string{"remove"},
		Short:   "Remove a compose",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			c, err := eng.FindCompose(args[0])
			if err != nil {
				return err
			}
			if err := eng.DeleteCompose(c.ID); err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"removed": c.ID})
			}
			newPrinter(cmd).Success(fmt.Sprintf("Removed compose %s", c.Name))
			return nil
		},
	})

	composeCmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List composes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			composes := eng.ListComposes()
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), composes)
			}
			p := newPrinter(cmd)
			if len(composes) == 0 {
				p.EmptyState("No composes found")
				return nil
			}
			rows := make([][]string, 0, len(composes))
			for _, c := range composes {
				rows = append(rows, []string{
					c.ID,
					c.Name,
					fmt.Sprint(len(c.Repos)),
					fmt.Sprint(len(c.SkillIDs) + len(c.AgentIDs) + len(c.CommandIDs) + len(c.MCPIDs)),
				})
			}
			p.Table([]string{"ID", "NAME", "REPOS", "RESOURCES"}, rows)
			return nil
		},
	})

	composeCmd.AddCommand(&cobra.Command{
		Use:   "show <compose>",
		Short: "Show a compose with its resolved references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			c, err := eng.FindCompose(args[0])
			if err != nil {
				return err
			}
			detail, err := eng.GetComposeDetail(c.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), detail)
			}
			printComposeDetail(newPrinter(cmd), detail)
			return nil
		},
	})

	composeCmd.AddCommand(&cobra.Command{
		Use:   "validate <compose>",
		Short: "Report references to resources that no longer exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			c, err := eng.FindCompose(args[0])
			if err != nil {
				return err
			}
			v, err := eng.ValidateReferences(c.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), v)
			}
			p := newPrinter(cmd)
			if v.Valid {
				p.Success(fmt.Sprintf("All references of %s resolve", c.Name))
				return nil
			}
			for _, group := range []struct {
				label string
				ids   []string
			}{
				{"repositories", v.MissingRepos},
				{"skills", v.MissingSkills},
				{"agents", v.MissingAgents},
				{"commands", v.MissingCommands},
				{"mcp configs", v.MissingMCPs},
			} {
				if len(group.ids) == 0 {
					continue
				}
				p.Warning(fmt.Sprintf("Missing %s:", group.label))
				p.List(group.ids, 1)
			}
			return nil
		},
	})

	return composeCmd
}

func printComposeDetail(p *printer, d *model.ComposeDetail) {
	p.Section(fmt.Sprintf("Compose %s", d.Compose.Name))
	p.LabelValue("ID", d.Compose.ID)
	p.LabelValue("Updated", d.Compose.UpdatedAt.Format("2006-01-02 15:04:05"))

	repos := make([]string, 0, len(d.Repos))
	for _, r := range d.Repos {
		base := r.BaseBranch
		if base == "" {
			base = "HEAD"
		}
		repos = append(repos, markMissing(fmt.Sprintf("%s (from %s)", r.Name, base), r.ID, r.Missing))
	}
	printGroup(p, "Repositories", repos)

	for _, group := range []struct {
		title string
		list  []model.ResolvedResource
	}{
		{"Skills", d.Skills},
		{"Agents", d.Agents},
		{"Commands", d.Commands},
		{"MCP configs", d.MCPs},
	} {
		items := make([]string, 0, len(group.list))
		for _, r := range group.list {
			items = append(items, markMissing(r.Name, r.ID, r.Missing))
		}
		printGroup(p, group.title, items)
	}
}

func printGroup(p *printer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(p.out)
	_, _ = infoColor.Fprintf(p.out, "  %s\n", title)
	p.List(items, 2)
}

func markMissing(label, id string, missing bool) string {
	if missing {
		return fmt.Sprintf("%s %s", label, warningColor.Sprintf("[missing %s]", id))
	}
	return label
}
