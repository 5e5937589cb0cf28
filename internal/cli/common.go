package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsforge/internal/clock"
	"github.com/danieljhkim/wsforge/internal/config"
	"github.com/danieljhkim/wsforge/internal/engine"
	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/hash"
	"github.com/danieljhkim/wsforge/internal/logging"
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/store"
)

// engineFactory builds the engine a command runs against.
type engineFactory func() (*engine.Engine, error)

// app is the state shared by every command of one root.
type app struct {
	jsonOutput bool
	newEngine  engineFactory
	eng        *engine.Engine
}

// engine returns the engine, creating it on first use.
func (a *app) engine() (*engine.Engine, error) {
	if a.eng != nil {
		return a.eng, nil
	}
	eng, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	a.eng = eng
	return eng, nil
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	settings, err := config.LoadSettings(paths)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(settings.Log.Level, settings.Log.Development)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	git := gitx.NewRealGit(settings.Git.Binary, settings.Git.Timeout)
	metaStore := store.NewFileStore(fs, paths.DataFile, logger)

	return engine.New(metaStore, git, fs, hash.NewSHA256Hasher(), clock.RealClock{}, settings, logger), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// findResource resolves ref as a resource id, or else as the name of exactly
// one resource of kind. An empty kind matches any kind.
func findResource(eng *engine.Engine, kind model.Kind, ref string) (*model.Resource, error) {
	if r, err := eng.GetResource(ref); err == nil && (kind == "" || r.Is(kind)) {
		return r, nil
	}

	var matches []model.Resource
	for _, r := range eng.ListResources(kind) {
		if r.Name == ref {
			matches = append(matches, r)
		}
	}
	label := "resource"
	if kind != "" {
		label = string(kind)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s %q", engine.ErrNotFound, label, ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d %s entries, use an id", ref, len(matches), label)
	}
}

// resolveIDs maps every ref to the id of a resource of kind.
func resolveIDs(eng *engine.Engine, kind model.Kind, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		r, err := findResource(eng, kind, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// parseAssignments splits key=value flag values. requireValue rejects "key=".
func parseAssignments(values []string, requireValue bool) ([][2]string, error) {
	out := make([][2]string, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || (!ok && requireValue) || (requireValue && value == "") {
			return nil, fmt.Errorf("invalid value %q (want key=value)", v)
		}
		out = append(out, [2]string{key, value})
	}
	return out, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
