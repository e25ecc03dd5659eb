package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cfgErr *review.ConfigError
	if errors.As(err, &cfgErr) {
		hint := "Check .revu/lenses.yaml and the run flags"
		if errors.Is(err, review.ErrArtifactUnresolvable) {
			hint = "Verify the artifact path exists and is readable"
		}
		return NewCLIError(cfgErr.Error(), hint, err)
	}

	var partial *review.PartialFailureError
	if errors.As(err, &partial) {
		return NewCLIError(
			partial.Error(),
			"Raise the per-lens timeout, lower --min-successes, or fix the failing lenses and rerun",
			err,
		)
	}

	switch {
	case errors.Is(err, review.ErrRunNotFound):
		return NewCLIError("run not found", "Run 'revu status' to list runs in this workspace", err)
	case errors.Is(err, review.ErrRunNotReported):
		return NewCLIError("run has no report yet", "Only reported runs can be shown or approved; check 'revu status <run-id>'", err)
	case errors.Is(err, review.ErrClusterNotFound):
		return NewCLIError("cluster not found", "Run 'revu report <run-id>' to list cluster ids", err)
	}

	return err
}
