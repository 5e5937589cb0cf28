// Package engine provides the core business logic for wsforge operations.
//
// The engine package acts as the orchestration layer between CLI commands and
// lower-level operations. It owns every read-modify-write of the metadata
// document and coordinates the builders that materialize a compose on disk.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Apply: Materializes a compose into a target directory step by step
//   - CheckConflicts: Pre-flight detection of colliding paths
//   - Resource / Compose CRUD: Validated mutations of the metadata document
//   - ValidateRepos: Prunes repositories that are no longer valid
package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danieljhkim/wsforge/internal/builder"
	"github.com/danieljhkim/wsforge/internal/clock"
	"github.com/danieljhkim/wsforge/internal/config"
	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/gitx"
	"github.com/danieljhkim/wsforge/internal/hash"
	"github.com/danieljhkim/wsforge/internal/logging"
	"github.com/danieljhkim/wsforge/internal/planner"
	"github.com/danieljhkim/wsforge/internal/store"
	"github.com/danieljhkim/wsforge/internal/worktree"
)

// Engine orchestrates all wsforge operations.
// It is the main API surface called by the CLI.
type Engine struct {
	store    store.MetadataStore
	vcs      gitx.VCS
	fs       fsops.FS
	clock    clock.Clock
	settings *config.Settings
	logger   *zap.Logger
	newID    func() string

	detector  *planner.ConflictDetector
	structure *builder.StructureBuilder
	mcp       *builder.MCPWriter
	worktrees *worktree.Provisioner
}

// New creates a new Engine with the given dependencies.
// A nil settings means config.DefaultSettings; a nil logger discards logs.
func New(
	metaStore store.MetadataStore,
	vcs gitx.VCS,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	settings *config.Settings,
	logger *zap.Logger,
) *Engine {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &Engine{
		store:    metaStore,
		vcs:      vcs,
		fs:       fs,
		clock:    clk,
		settings: settings,
		logger:   logging.OrNop(logger).Named("engine"),
		newID:    uuid.NewString,

		detector:  planner.NewConflictDetector(fs),
		structure: builder.NewStructureBuilder(fs, hasher),
		mcp:       builder.NewMCPWriter(fs),
		worktrees: worktree.NewProvisioner(fs, vcs),
	}
}

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() *config.Settings {
	return e.settings
}
