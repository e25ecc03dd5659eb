package review

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRunNotFound indicates the run id does not exist in the workspace.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunNotReported indicates an approval was attempted before the run
	// produced a report.
	ErrRunNotReported = errors.New("run has no report yet")
	// ErrClusterNotFound indicates an approval selection named an unknown cluster.
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrArtifactUnresolvable indicates the artifact reference could not be
	// read before dispatch.
	ErrArtifactUnresolvable = errors.New("artifact reference is not resolvable")
)

// ConfigError rejects a run before dispatch begins: empty or duplicate lens
// ids, or an unresolvable artifact.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid run configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid run configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LensFailure names one lens that did not succeed, and why.
type LensFailure struct {
	LensID string     `json:"lens_id"`
	Status TaskStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// PartialFailureError is returned when fewer than the required number of
// lenses succeeded. It is fatal for the run; no clusters are produced.
type PartialFailureError struct {
	Required  int
	Succeeded int
	Failures  []LensFailure
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Detail != "" {
			parts = append(parts, fmt.Sprintf("%s (%s: %s)", f.LensID, f.Status, f.Detail))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", f.LensID, f.Status))
		}
	}
	return fmt.Sprintf("only %d of the required %d lenses succeeded; failed: %s",
		e.Succeeded, e.Required, strings.Join(parts, ", "))
}

// ValidationError quarantines a single malformed finding entry. It never
// fails the task the entry came from.
type ValidationError struct {
	TaskID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid finding from task %s: %s", e.TaskID, e.Reason)
}
