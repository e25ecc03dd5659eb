package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/revu/pkg/dispatch"
	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

func testArtifact() review.Artifact {
	return review.NewArtifact("a1", "PaymentForm.tsx", []byte("form"))
}

func testOptions() review.RunOptions {
	return review.RunOptions{
		GlobalDeadline:       5 * time.Second,
		PerTaskTimeout:       time.Second,
		MaxConcurrency:       4,
		MinRequiredSuccesses: 1,
	}
}

// fixedFactory returns a canned analyzer per lens id.
func fixedFactory(analyzers map[string]lens.Analyzer) dispatch.AnalyzerFactory {
	return func(cfg review.LensConfig) (lens.Analyzer, error) {
		a, ok := analyzers[cfg.ID]
		if !ok {
			return nil, errors.New("unknown lens")
		}
		return a, nil
	}
}

func reporting(findings ...lens.RawFinding) lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		return lens.MarshalFindings(findings), nil
	})
}

func sleeping(d time.Duration) lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		select {
		case <-time.After(d):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

func failing(msg string) lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		return nil, errors.New(msg)
	})
}

func TestDispatchConfigErrors(t *testing.T) {
	d := dispatch.NewDispatcher(fixedFactory(nil), nil, nil)

	cases := []struct {
		name     string
		artifact review.Artifact
		configs  []review.LensConfig
		opts     review.RunOptions
	}{
		{"no lenses", testArtifact(), nil, testOptions()},
		{"empty lens id", testArtifact(), []review.LensConfig{{ID: ""}}, testOptions()},
		{"duplicate lens ids", testArtifact(), []review.LensConfig{{ID: "usability"}, {ID: "usability"}}, testOptions()},
		{"unresolved artifact", review.Artifact{ID: "a1"}, []review.LensConfig{{ID: "usability"}}, testOptions()},
		{"zero concurrency", testArtifact(), []review.LensConfig{{ID: "usability"}}, review.RunOptions{GlobalDeadline: time.Second, PerTaskTimeout: time.Second, MinRequiredSuccesses: 1}},
	}

	for _, tc := range cases {
		_, err := d.Dispatch(context.Background(), tc.artifact, tc.configs, tc.opts)
		var cfgErr *review.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigError, got %v", tc.name, err)
		}
	}
}

func TestDispatchAllSucceed(t *testing.T) {
	factory := fixedFactory(map[string]lens.Analyzer{
		"usability":   reporting(lens.RawFinding{Category: "usability", Severity: "major"}),
		"gap":         reporting(),
		"duplication": reporting(),
	})

	var transitions []review.TaskStatus
	observer := func(task review.AnalysisTask) {
		transitions = append(transitions, task.Status)
	}

	d := dispatch.NewDispatcher(factory, observer, nil)
	result, err := d.Dispatch(context.Background(), testArtifact(), []review.LensConfig{
		{ID: "usability", Category: "usability"},
		{ID: "gap", Category: "gap"},
		{ID: "duplication", Category: "duplication"},
	}, testOptions())
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if result.Succeeded != 3 {
		t.Errorf("expected 3 succeeded, got %d", result.Succeeded)
	}
	for _, task := range result.Tasks {
		if task.Status != review.TaskSucceeded {
			t.Errorf("lens %s: expected succeeded, got %s", task.LensID, task.Status)
		}
		if task.StartedAt.IsZero() || task.FinishedAt.IsZero() {
			t.Errorf("lens %s: missing timestamps", task.LensID)
		}
	}

	// Every task transitions pending -> running -> terminal; all observed.
	if len(transitions) != 6 {
		t.Errorf("expected 6 observed transitions, got %d", len(transitions))
	}

	// Raw output of the reporting lens survives on the task record.
	usability := result.Tasks[0]
	if usability.LensID != "usability" || len(usability.RawOutput) == 0 {
		t.Errorf("expected raw output on usability task, got %q", usability.RawOutput)
	}
}

func TestDispatchTimeoutIsolation(t *testing.T) {
	factory := fixedFactory(map[string]lens.Analyzer{
		"fast-1": reporting(lens.RawFinding{Category: "gap", Severity: "minor"}),
		"fast-2": reporting(),
		"slow":   sleeping(2 * time.Second),
	})

	opts := review.RunOptions{
		GlobalDeadline:       3 * time.Second,
		PerTaskTimeout:       100 * time.Millisecond,
		MaxConcurrency:       3,
		MinRequiredSuccesses: 2,
	}

	d := dispatch.NewDispatcher(factory, nil, nil)
	start := time.Now()
	result, err := d.Dispatch(context.Background(), testArtifact(), []review.LensConfig{
		{ID: "fast-1"}, {ID: "fast-2"}, {ID: "slow"},
	}, opts)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > opts.GlobalDeadline {
		t.Errorf("dispatch took %v, past the global deadline", elapsed)
	}

	if result.Succeeded != 2 {
		t.Errorf("expected 2 succeeded, got %d", result.Succeeded)
	}
	failures := result.Failures()
	if len(failures) != 1 || failures[0].LensID != "slow" || failures[0].Status != review.TaskTimedOut {
		t.Errorf("expected slow lens timedout, got %+v", failures)
	}
}

func TestDispatchPartialFailure(t *testing.T) {
	factory := fixedFactory(map[string]lens.Analyzer{
		"usability":   reporting(),
		"gap":         failing("analyzer crashed"),
		"duplication": failing("no duplication backend"),
	})

	opts := testOptions()
	opts.MinRequiredSuccesses = 2

	d := dispatch.NewDispatcher(factory, nil, nil)
	_, err := d.Dispatch(context.Background(), testArtifact(), []review.LensConfig{
		{ID: "usability"}, {ID: "gap"}, {ID: "duplication"},
	}, opts)

	var pfe *review.PartialFailureError
	if !errors.As(err, &pfe) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if pfe.Succeeded != 1 || pfe.Required != 2 {
		t.Errorf("expected 1/2, got %d/%d", pfe.Succeeded, pfe.Required)
	}
	if len(pfe.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(pfe.Failures))
	}
	for _, f := range pfe.Failures {
		if f.Status != review.TaskFailed || f.Detail == "" {
			t.Errorf("failure should carry status and detail: %+v", f)
		}
	}
}

func TestDispatchRespectsConcurrencyLimit(t *testing.T) {
	var running, peak int32
	analyzer := lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil, nil
	})

	configs := make([]review.LensConfig, 6)
	analyzers := make(map[string]lens.Analyzer, 6)
	for i := range configs {
		id := string(rune('a' + i))
		configs[i] = review.LensConfig{ID: id}
		analyzers[id] = analyzer
	}

	opts := testOptions()
	opts.MaxConcurrency = 2
	opts.MinRequiredSuccesses = 6

	d := dispatch.NewDispatcher(fixedFactory(analyzers), nil, nil)
	if _, err := d.Dispatch(context.Background(), testArtifact(), configs, opts); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("expected at most 2 concurrent tasks, saw %d", p)
	}
}

func TestDispatchFactoryErrorMarksTaskFailed(t *testing.T) {
	d := dispatch.NewDispatcher(fixedFactory(map[string]lens.Analyzer{"known": reporting()}), nil, nil)

	opts := testOptions()
	opts.MinRequiredSuccesses = 0
	result, err := d.Dispatch(context.Background(), testArtifact(), []review.LensConfig{
		{ID: "known"}, {ID: "unknown"},
	}, opts)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	failures := result.Failures()
	if len(failures) != 1 || failures[0].LensID != "unknown" || failures[0].Status != review.TaskFailed {
		t.Errorf("expected unknown lens failed, got %+v", failures)
	}
}
