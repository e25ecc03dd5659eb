// Package dispatch runs analyzer tasks concurrently under resource and time
// bounds and collects their terminal results.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"golang.org/x/sync/semaphore"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// AnalyzerFactory resolves a lens configuration to a runnable analyzer.
// It is called once per task, before the task starts.
type AnalyzerFactory func(cfg review.LensConfig) (lens.Analyzer, error)

// TransitionObserver is notified of every task status transition, so the
// caller can persist them for audit and replay.
type TransitionObserver func(task review.AnalysisTask)

// CollectionResult holds whatever terminal tasks exist when the collection
// phase closes. Downstream components only ever see this closed set.
type CollectionResult struct {
	Tasks     []review.AnalysisTask
	Succeeded int
}

// SucceededTasks returns the tasks that reached succeeded.
func (r *CollectionResult) SucceededTasks() []review.AnalysisTask {
	out := make([]review.AnalysisTask, 0, r.Succeeded)
	for _, t := range r.Tasks {
		if t.Status == review.TaskSucceeded {
			out = append(out, t)
		}
	}
	return out
}

// Failures lists every lens that did not succeed, with its terminal status.
func (r *CollectionResult) Failures() []review.LensFailure {
	var out []review.LensFailure
	for _, t := range r.Tasks {
		if t.Status != review.TaskSucceeded {
			out = append(out, review.LensFailure{LensID: t.LensID, Status: t.Status, Detail: t.Error})
		}
	}
	return out
}

// Dispatcher launches analysis tasks against one immutable artifact snapshot.
type Dispatcher struct {
	factory  AnalyzerFactory
	observer TransitionObserver
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. The observer may be nil.
func NewDispatcher(factory AnalyzerFactory, observer TransitionObserver, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{factory: factory, observer: observer, logger: logger}
}

// Dispatch validates the run configuration, runs up to MaxConcurrency tasks
// at a time, and returns the terminal task set. Each task races its own
// timeout; the whole collection phase races the global deadline. If fewer
// than MinRequiredSuccesses tasks succeed, a PartialFailureError is returned
// and nothing downstream should run.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact review.Artifact, configs []review.LensConfig, opts review.RunOptions) (*CollectionResult, error) {
	if err := validate(artifact, configs, opts); err != nil {
		return nil, err
	}

	deadline := opts.GlobalDeadline
	if deadline <= 0 {
		deadline = 10 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	table := newStatusTable(artifact, configs, d.observer)

	sem := semaphore.NewWeighted(int64(opts.MaxConcurrency))
	done := make(chan struct{})
	for _, cfg := range configs {
		go func(cfg review.LensConfig) {
			defer func() { done <- struct{}{} }()
			d.runTask(runCtx, sem, table, artifact, cfg, opts.PerTaskTimeout)
		}(cfg)
	}
	for range configs {
		<-done
	}

	// The deadline may have expired with tasks still queued or hung inside
	// an analyzer that ignored cancellation. Whatever is not terminal now is
	// timed out; any result arriving later is discarded by the table.
	table.closeOut(runCtx.Err())

	result := table.snapshot()
	if result.Succeeded < opts.MinRequiredSuccesses {
		return nil, &review.PartialFailureError{
			Required:  opts.MinRequiredSuccesses,
			Succeeded: result.Succeeded,
			Failures:  result.Failures(),
		}
	}
	return result, nil
}

func (d *Dispatcher) runTask(ctx context.Context, sem *semaphore.Weighted, table *statusTable, artifact review.Artifact, cfg review.LensConfig, perTaskTimeout time.Duration) {
	if err := sem.Acquire(ctx, 1); err != nil {
		// Deadline hit while queued; closeOut marks the task timed out.
		return
	}
	defer sem.Release(1)

	taskID, ok := table.start(cfg.ID)
	if !ok {
		return
	}

	analyzer, err := d.factory(cfg)
	if err != nil {
		table.finish(cfg.ID, review.TaskFailed, nil, fmt.Errorf("resolve analyzer: %w", err))
		return
	}

	if perTaskTimeout <= 0 {
		perTaskTimeout = time.Minute
	}
	executor := timeout.New[json.RawMessage](timeout.Config{
		DefaultTimeout: perTaskTimeout,
	})

	// The analyzer is opaque and may ignore cancellation; the executor
	// abandons it at the timeout. returned tells a genuine analyzer error
	// apart from the executor giving up on a hung one.
	var returned atomic.Bool
	raw, err := executor.Execute(ctx, perTaskTimeout, func(ctx context.Context) (json.RawMessage, error) {
		out, aerr := analyzer.Analyze(ctx, lens.Request{ArtifactRef: artifact.Ref, Params: cfg.Params})
		returned.Store(true)
		return out, aerr
	})

	switch {
	case err == nil:
		table.finish(cfg.ID, review.TaskSucceeded, raw, nil)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || !returned.Load():
		d.logger.Warn("lens timed out", "lens", cfg.ID, "task", taskID, "timeout", perTaskTimeout)
		table.finish(cfg.ID, review.TaskTimedOut, nil, err)
	default:
		table.finish(cfg.ID, review.TaskFailed, nil, err)
	}
}

// ValidateRunConfig checks a run configuration without dispatching anything,
// so callers can reject bad input before creating any durable records.
func ValidateRunConfig(artifact review.Artifact, configs []review.LensConfig, opts review.RunOptions) error {
	return validate(artifact, configs, opts)
}

func validate(artifact review.Artifact, configs []review.LensConfig, opts review.RunOptions) error {
	if len(configs) == 0 {
		return &review.ConfigError{Reason: "no lenses configured"}
	}
	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if cfg.ID == "" {
			return &review.ConfigError{Reason: "lens id cannot be empty"}
		}
		if seen[cfg.ID] {
			return &review.ConfigError{Reason: fmt.Sprintf("duplicate lens id: %s", cfg.ID)}
		}
		seen[cfg.ID] = true
	}
	if artifact.Ref == "" || artifact.ContentHash == "" {
		return &review.ConfigError{Reason: "artifact is not resolved", Err: review.ErrArtifactUnresolvable}
	}
	if opts.MaxConcurrency <= 0 {
		return &review.ConfigError{Reason: "max_concurrency must be positive"}
	}
	if opts.MinRequiredSuccesses < 0 || opts.MinRequiredSuccesses > len(configs) {
		return &review.ConfigError{Reason: "min_required_successes out of range"}
	}
	return nil
}
