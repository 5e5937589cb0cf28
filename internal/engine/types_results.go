package engine

// StepStatus is the lifecycle state of an apply step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepSkipped StepStatus = "skipped"
	StepError   StepStatus = "error"
)

// Terminal reports whether the status ends a step.
func (s StepStatus) Terminal() bool {
	return s == StepDone || s == StepSkipped || s == StepError
}

// Step names reported by Apply. Worktree steps are named "worktree: <repo>".
const (
	StepLoadCompose     = "load compose"
	StepConflictCheck   = "conflict check"
	StepStructure       = ".claude/ structure"
	StepMergeConfig     = ".mcp.json"
	StepUnexpectedError = "unexpected error"
	worktreeStepPrefix  = "worktree: "
)

// WorktreeStepName returns the step name for a repo's worktree.
func WorktreeStepName(repoName string) string {
	return worktreeStepPrefix + repoName
}

// StepResult is the latest known state of one step.
type StepResult struct {
	Name    string     `json:"name"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// ApplyResult represents the result of applying a compose.
type ApplyResult struct {
	// Steps holds exactly one record per step, in first-seen order
	Steps []StepResult `json:"steps"`

	// Success is false iff any step ended in error
	Success bool `json:"success"`
}

// Step returns the record for name, or nil.
func (r *ApplyResult) Step(name string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// Observer receives every step transition while Apply runs.
type Observer interface {
	OnStep(name string, status StepStatus, message string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(name string, status StepStatus, message string)

// OnStep calls f.
func (f ObserverFunc) OnStep(name string, status StepStatus, message string) {
	f(name, status, message)
}

// RepoValidation is the validation outcome for one registered repo.
type RepoValidation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}
