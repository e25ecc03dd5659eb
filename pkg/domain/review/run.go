package review

import "time"

// RunState is the run-level lifecycle. Reported is a stable terminal state
// that accepts unlimited subsequent approvals.
type RunState string

const (
	RunCreated      RunState = "created"
	RunDispatching  RunState = "dispatching"
	RunCollecting   RunState = "collecting"
	RunSynthesizing RunState = "synthesizing"
	RunReported     RunState = "reported"
	RunFailed       RunState = "failed"
)

// IsValid returns true if the state is a known run state.
func (s RunState) IsValid() bool {
	switch s {
	case RunCreated, RunDispatching, RunCollecting, RunSynthesizing, RunReported, RunFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for reported and failed.
func (s RunState) IsTerminal() bool {
	return s == RunReported || s == RunFailed
}

// String returns the string representation of the state.
func (s RunState) String() string {
	return string(s)
}

// RunOptions bound one dispatch round.
type RunOptions struct {
	GlobalDeadline       time.Duration `json:"global_deadline" yaml:"global_deadline"`
	PerTaskTimeout       time.Duration `json:"per_task_timeout" yaml:"per_task_timeout"`
	MaxConcurrency       int           `json:"max_concurrency" yaml:"max_concurrency"`
	MinRequiredSuccesses int           `json:"min_required_successes" yaml:"min_required_successes"`
}

// Run records one synthesis run from creation through report. Categories and
// Policy are captured at creation time so a later replay clusters with the
// exact rules of the original run.
type Run struct {
	ID          string        `json:"id"`
	Artifact    Artifact      `json:"artifact"`
	LensConfigs []LensConfig  `json:"lens_configs"`
	Categories  []string      `json:"categories,omitempty"`
	Policy      ClusterPolicy `json:"policy"`
	Options     RunOptions    `json:"options"`
	State       RunState      `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Error       string        `json:"error,omitempty"`
}
