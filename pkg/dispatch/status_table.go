package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// statusTable is the only shared mutable state of a dispatch round. All task
// status transitions funnel through its mutex, so concurrent completion
// callbacks cannot race, and results arriving after a task went terminal are
// dropped rather than incorporated.
type statusTable struct {
	mu       sync.Mutex
	tasks    map[string]*review.AnalysisTask // keyed by lens id
	order    []string
	observer TransitionObserver
	logger   *slog.Logger
}

func newStatusTable(artifact review.Artifact, configs []review.LensConfig, observer TransitionObserver) *statusTable {
	t := &statusTable{
		tasks:    make(map[string]*review.AnalysisTask, len(configs)),
		order:    make([]string, 0, len(configs)),
		observer: observer,
		logger:   slog.Default(),
	}
	for _, cfg := range configs {
		t.tasks[cfg.ID] = &review.AnalysisTask{
			ID:         uuid.New().String(),
			LensID:     cfg.ID,
			Category:   cfg.Category,
			ArtifactID: artifact.ID,
			Params:     cfg.Params,
			Status:     review.TaskPending,
		}
		t.order = append(t.order, cfg.ID)
	}
	return t
}

// start moves a task to running. Returns false if the task already left
// pending (deadline close-out won the race).
func (t *statusTable) start(lensID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task := t.tasks[lensID]
	if err := task.Transition(review.TaskRunning, time.Now().UTC()); err != nil {
		return task.ID, false
	}
	t.notify(*task)
	return task.ID, true
}

// finish records a terminal status. A result for an already-terminal task is
// logged and discarded.
func (t *statusTable) finish(lensID string, status review.TaskStatus, raw json.RawMessage, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task := t.tasks[lensID]
	if task.Status.IsTerminal() {
		t.logger.Warn("discarding late result for terminal task", "lens", lensID, "task", task.ID, "status", task.Status)
		return
	}
	if terr := task.Transition(status, time.Now().UTC()); terr != nil {
		return
	}
	if err != nil {
		task.Error = err.Error()
	}
	task.RawOutput = raw
	t.notify(*task)
}

// closeOut marks every non-terminal task timed out. Called exactly once when
// the collection phase closes.
func (t *statusTable) closeOut(cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	detail := "global deadline expired before completion"
	if errors.Is(cause, context.Canceled) {
		detail = "run cancelled before completion"
	}
	now := time.Now().UTC()
	for _, lensID := range t.order {
		task := t.tasks[lensID]
		if task.Status.IsTerminal() {
			continue
		}
		if err := task.Transition(review.TaskTimedOut, now); err != nil {
			continue
		}
		task.Error = detail
		t.notify(*task)
	}
}

// snapshot returns the terminal task set in lens configuration order.
func (t *statusTable) snapshot() *CollectionResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := &CollectionResult{Tasks: make([]review.AnalysisTask, 0, len(t.order))}
	for _, lensID := range t.order {
		task := *t.tasks[lensID]
		result.Tasks = append(result.Tasks, task)
		if task.Status == review.TaskSucceeded {
			result.Succeeded++
		}
	}
	return result
}

func (t *statusTable) notify(task review.AnalysisTask) {
	if t.observer != nil {
		t.observer(task)
	}
}
