package engine

import (
	"github.com/danieljhkim/wsforge/internal/model"
	"github.com/danieljhkim/wsforge/internal/planner"
)

// ApplyRequest represents a request to apply a compose to a directory.
type ApplyRequest struct {
	// TargetDir is the directory the compose is materialized into.
	// It is created when missing.
	TargetDir string

	// ComposeID is the compose to apply
	ComposeID string

	// BranchNames maps repo resource id to the new branch created for its
	// worktree. Repos without an entry are skipped.
	BranchNames map[string]string

	// Resolutions holds the caller's choice per conflict class. When nil the
	// engine runs conflict detection itself and falls back to the configured
	// default resolution.
	Resolutions map[planner.ConflictType]planner.Resolution
}

// SkillInput is the user-supplied content of a skill.
type SkillInput struct {
	Name    string
	SkillMD string
	Files   []model.SkillFile
}

// DocumentInput is the user-supplied content of an agent or command.
type DocumentInput struct {
	Name    string
	Content string
}

// MCPInput is the user-supplied content of an MCP config.
type MCPInput struct {
	Name   string
	Config map[string]any
}

// ComposeInput is the user-supplied content of a compose.
type ComposeInput struct {
	Name       string
	Repos      []model.ComposeRepo
	SkillIDs   []string
	AgentIDs   []string
	CommandIDs []string
	MCPIDs     []string
}
