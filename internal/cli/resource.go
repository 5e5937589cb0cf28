package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsforge/internal/builder"
	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/model"
)

// documentKind describes one of the markdown resource commands.
type documentKind struct {
	kind   model.Kind
	noun   string
	create func(eng *engine.Engine, in engine.DocumentInput) (*model.Resource, error)
}

var (
	documentAgent = documentKind{
		kind: model.KindAgent,
		noun: "agent",
		create: func(eng *engine.Engine, in engine.DocumentInput) (*model.Resource, error) {
			return eng.CreateAgent(in)
		},
	}
	documentCommand = documentKind{
		kind: model.KindCommand,
		noun: "command",
		create: func(eng *engine.Engine, in engine.DocumentInput) (*model.Resource, error) {
			return eng.CreateCommand(in)
		},
	}
)

func newSkillCommand(a *app) *cobra.Command {
	skillCmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage skills",
	}

	var skillMDPath string
	var files []string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a skill from a SKILL.md file",
		Long: `Create a skill from a SKILL.md file. Auxiliary files are given as
--file <relative-path>=<source-file> and are written next to SKILL.md on apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if skillMDPath == "" {
				return fmt.Errorf("--skill-md is required")
			}
			skillMD, err := os.ReadFile(skillMDPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", skillMDPath, err)
			}
			pairs, err := parseAssignments(files, true)
			if err != nil {
				return err
			}
			in := engine.SkillInput{Name: args[0], SkillMD: string(skillMD)}
			for _, pair := range pairs {
				content, err := os.ReadFile(pair[1])
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", pair[1], err)
				}
				in.Files = append(in.Files, model.SkillFile{RelativePath: pair[0], Content: string(content)})
			}

			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := eng.CreateSkill(in)
			if err != nil {
				return err
			}
			return printCreated(cmd, a, r)
		},
	}
	addCmd.Flags().StringVar(&skillMDPath, "skill-md", "", "Path to the SKILL.md document")
	addCmd.Flags().StringArrayVar(&files, "file", nil, "Auxiliary file as <relative-path>=<source-file> (repeatable)")
	skillCmd.AddCommand(addCmd)

	skillCmd.AddCommand(&cobra.Command{
		Use:   "import <dir>",
		Short: "Create a skill from a directory containing SKILL.md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := eng.ImportSkillDir(args[0])
			if err != nil {
				return err
			}
			return printCreated(cmd, a, r)
		},
	})

	return skillCmd
}

func newDocumentCommand(a *app, dk documentKind) *cobra.Command {
	docCmd := &cobra.Command{
		Use:   dk.noun,
		Short: fmt.Sprintf("Manage %ss", dk.noun),
	}

	var content, from string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Create a %s from inline markdown or a file", dk.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (content == "") == (from == "") {
				return fmt.Errorf("exactly one of --content or --from is required")
			}
			body := content
			if from != "" {
				data, err := os.ReadFile(from)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", from, err)
				}
				body = string(data)
			}

			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := dk.create(eng, engine.DocumentInput{Name: args[0], Content: body})
			if err != nil {
				return err
			}
			return printCreated(cmd, a, r)
		},
	}
	addCmd.Flags().StringVar(&content, "content", "", "Markdown content")
	addCmd.Flags().StringVar(&from, "from", "", "Read the markdown content from a file")
	docCmd.AddCommand(addCmd)

	docCmd.AddCommand(newImportCommand(a, dk.kind, "<file.md>"))
	return docCmd
}

func newMCPCommand(a *app) *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage MCP configs",
	}

	var config string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an MCP config from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parsed map[string]any
			if err := json.Unmarshal([]byte(config), &parsed); err != nil {
				return fmt.Errorf("--config must be a JSON object: %w", err)
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := eng.CreateMCP(engine.MCPInput{Name: args[0], Config: parsed})
			if err != nil {
				return err
			}
			return printCreated(cmd, a, r)
		},
	}
	addCmd.Flags().StringVar(&config, "config", "", `JSON object, e.g. '{"mcpServers":{...}}'`)
	_ = addCmd.MarkFlagRequired("config")
	mcpCmd.AddCommand(addCmd)

	mcpCmd.AddCommand(newImportCommand(a, model.KindMCP, "<file.json>"))
	return mcpCmd
}

func newImportCommand(a *app, kind model.Kind, arg string) *cobra.Command {
	return &cobra.Command{
		Use:   "import " + arg,
		Short: fmt.Sprintf("Create a %s resource named after the file", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := eng.ImportFromFile(kind, args[0])
			if err != nil {
				return err
			}
			return printCreated(cmd, a, r)
		},
	}
}

func newResourceCommand(a *app) *cobra.Command {
	resourceCmd := &cobra.Command{
		Use:   "resource",
		Short: "List, inspect and remove resources of any kind",
	}

	var kindFlag string
	lsCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind model.Kind
			if kindFlag != "" {
				k, err := model.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kind = k
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			return printResources(cmd, a, eng.ListResources(kind))
		},
	}
	lsCmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Only list one kind (repo, skill, agent, command, mcp)")
	resourceCmd.AddCommand(lsCmd)

	resourceCmd.AddCommand(&cobra.Command{
		Use:   "show <id-or-name>",
		Short: "Show a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := findResource(eng, "", args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), r)
			}
			printResource(newPrinter(cmd), r)
			return nil
		},
	})

	resourceCmd.AddCommand(&cobra.Command{
		Use:     "rm <id-or-name>",
		Aliases: []string{"remove"},
		Short:   "Remove a resource",
		Long: `Remove a resource. Composes that reference it keep the reference, which is
reported as missing and skipped on apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			r, err := findResource(eng, "", args[0])
			if err != nil {
				return err
			}
			if err := eng.RemoveResource(r.ID); err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"removed": r.ID})
			}
			newPrinter(cmd).Success(fmt.Sprintf("Removed %s %s", r.Type, r.Name))
			return nil
		},
	})

	return resourceCmd
}

func printCreated(cmd *cobra.Command, a *app, r *model.Resource) error {
	if a.jsonOutput {
		return outputJSON(cmd.OutOrStdout(), r)
	}
	p := newPrinter(cmd)
	p.Success(fmt.Sprintf("Created %s %s", r.Type, r.Name))
	p.LabelValue("ID", r.ID)
	return nil
}

func printResources(cmd *cobra.Command, a *app, resources []model.Resource) error {
	if a.jsonOutput {
		return outputJSON(cmd.OutOrStdout(), resources)
	}
	p := newPrinter(cmd)
	if len(resources) == 0 {
		p.EmptyState("No resources found")
		return nil
	}
	rows := make([][]string, 0, len(resources))
	for i := range resources {
		r := &resources[i]
		rows = append(rows, []string{r.ID, string(r.Type), r.Name, summarize(r)})
	}
	p.Table([]string{"ID", "KIND", "NAME", "DETAIL"}, rows)
	return nil
}

// summarize returns a one-line description of a resource.
func summarize(r *model.Resource) string {
	switch r.Type {
	case model.KindRepo:
		return r.Path
	case model.KindSkill:
		if fm, err := model.ParseSkillFrontmatter(r.SkillMD); err == nil && fm != nil && fm.Description != "" {
			return truncate(fm.Description, 60)
		}
		return Count(len(r.Files), "file", "files")
	case model.KindMCP:
		return Count(len(r.Config), "key", "keys")
	default:
		return truncate(firstLine(r.Content), 60)
	}
}

func printResource(p *printer, r *model.Resource) {
	p.Section(fmt.Sprintf("%s %s", r.Type, r.Name))
	p.LabelValue("ID", r.ID)
	p.LabelValue("Created", r.CreatedAt.Format("2006-01-02 15:04:05"))
	p.LabelValue("Updated", r.UpdatedAt.Format("2006-01-02 15:04:05"))

	switch r.Type {
	case model.KindRepo:
		p.LabelValue("Path", r.Path)
	case model.KindSkill:
		if fm, err := model.ParseSkillFrontmatter(r.SkillMD); err == nil && fm != nil {
			if fm.Description != "" {
				p.LabelValue("Description", fm.Description)
			}
			if fm.AllowedTools != "" {
				p.LabelValue("Allowed tools", fm.AllowedTools)
			}
		}
		p.LabelValue("Mounted at", builder.StructureDirName+"/"+builder.SkillMountPath(r.Name))
		if len(r.Files) > 0 {
			paths := make([]string, 0, len(r.Files))
			for _, f := range r.Files {
				paths = append(paths, f.RelativePath)
			}
			fmt.Fprintln(p.out)
			p.List(paths, 1)
		}
	case model.KindMCP:
		data, err := json.MarshalIndent(r.Config, "  ", "  ")
		if err == nil {
			fmt.Fprintf(p.out, "\n  %s\n", data)
		}
	default:
		fmt.Fprintf(p.out, "\n%s\n", strings.TrimRight(r.Content, "\n"))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
