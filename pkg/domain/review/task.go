package review

import (
	"fmt"
	"time"
)

// LensConfig configures one analysis focus dispatched as a single task.
// Exactly one of Plugin or Command selects the analyzer backend; tests may
// inject an in-process analyzer instead.
type LensConfig struct {
	ID       string            `json:"id" yaml:"id"`
	Category string            `json:"category" yaml:"category"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Plugin   string            `json:"plugin,omitempty" yaml:"plugin,omitempty"`   // path to a go-plugin binary
	Command  []string          `json:"command,omitempty" yaml:"command,omitempty"` // argv for an exec lens
}

// AnalysisTask is one dispatched analyzer invocation. Status transitions only
// move forward; once terminal the record is immutable.
type AnalysisTask struct {
	ID         string            `json:"id"`
	LensID     string            `json:"lens_id"`
	Category   string            `json:"category"`
	ArtifactID string            `json:"artifact_id"`
	Params     map[string]string `json:"params,omitempty"`
	Status     TaskStatus        `json:"status"`
	StartedAt  time.Time         `json:"started_at,omitzero"`
	FinishedAt time.Time         `json:"finished_at,omitzero"`
	RawOutput  []byte            `json:"raw_output,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Transition moves the task to the target status, enforcing forward-only
// movement. Timestamps are stamped on entry to running and to any terminal
// status.
func (t *AnalysisTask) Transition(target TaskStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("task %s: illegal transition %s -> %s", t.ID, t.Status, target)
	}
	t.Status = target
	switch {
	case target == TaskRunning:
		t.StartedAt = now
	case target.IsTerminal():
		t.FinishedAt = now
	}
	return nil
}
