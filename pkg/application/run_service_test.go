package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/felixgeelhaar/revu/pkg/application"
	"github.com/felixgeelhaar/revu/pkg/dispatch"
	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// lensOutputs maps lens id to the raw JSON its analyzer returns, or an error.
type lensOutputs map[string]struct {
	raw []byte
	err error
}

func factoryFor(outputs lensOutputs) dispatch.AnalyzerFactory {
	return func(cfg review.LensConfig) (lens.Analyzer, error) {
		out, ok := outputs[cfg.ID]
		if !ok {
			return nil, fmt.Errorf("unknown lens %s", cfg.ID)
		}
		return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
			return json.RawMessage(out.raw), out.err
		}), nil
	}
}

func rawFinding(category, severity, path, section, desc string) lens.RawFinding {
	return lens.RawFinding{
		Category:    category,
		Severity:    severity,
		Locator:     lens.RawLocator{Path: path, Section: section},
		Description: desc,
	}
}

func newRunService(t *testing.T, repo *memoryRepo, outputs lensOutputs) *application.RunService {
	t.Helper()
	audit := application.NewAuditService(repo)
	svc := application.NewRunService(repo, audit, factoryFor(outputs), nil)
	return svc.WithResolver(func(ref string) ([]byte, error) {
		if ref == "missing.tsx" {
			return nil, fmt.Errorf("no such file")
		}
		return []byte("artifact content of " + ref), nil
	})
}

func paymentFormRequest() application.ExecuteRequest {
	return application.ExecuteRequest{
		ArtifactRef: "PaymentForm.tsx",
		Lenses: []review.LensConfig{
			{ID: "usability", Category: "usability"},
			{ID: "a11y", Category: "accessibility"},
			{ID: "duplication", Category: "duplication"},
		},
		Categories: []string{"usability", "accessibility", "duplication"},
		Policy: review.ClusterPolicy{
			CategoryCompatibility: map[string][]string{"usability": {"accessibility"}},
		},
		Options: review.RunOptions{
			GlobalDeadline:       30 * time.Second,
			PerTaskTimeout:       5 * time.Second,
			MaxConcurrency:       3,
			MinRequiredSuccesses: 2,
		},
	}
}

func TestExecuteFullPipeline(t *testing.T) {
	repo := newMemoryRepo()
	outputs := lensOutputs{
		"usability": {raw: lens.MarshalFindings([]lens.RawFinding{
			rawFinding("usability", "major", "PaymentForm.tsx", "expiry-field", "expiry field does not auto-format input"),
		})},
		"a11y": {raw: lens.MarshalFindings([]lens.RawFinding{
			rawFinding("accessibility", "critical", "PaymentForm.tsx", "expiry-field", "expiry field does not auto-format the input"),
		})},
		"duplication": {raw: lens.MarshalFindings([]lens.RawFinding{
			rawFinding("duplication", "minor", "util.ts", "", "duplicated currency parsing helper"),
		})},
	}
	svc := newRunService(t, repo, outputs)

	report, err := svc.Execute(context.Background(), paymentFormRequest())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(report.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(report.Clusters))
	}
	// The compatible usability/accessibility pair clusters; critical wins.
	top := report.Clusters[0]
	if len(top.MemberIDs) != 2 || top.ResolvedSeverity != review.SeverityCritical {
		t.Errorf("expected critical pair at the top, got %+v", top)
	}
	if !report.Summary.RequiresImmediateAttention {
		t.Error("critical cluster should flag the summary")
	}

	run, err := repo.LoadRun(report.RunID)
	if err != nil {
		t.Fatalf("run not persisted: %v", err)
	}
	if run.State != review.RunReported {
		t.Errorf("expected reported state, got %s", run.State)
	}
	if run.Artifact.ContentHash == "" {
		t.Error("artifact snapshot must carry a content hash")
	}

	if _, err := repo.LoadReport(report.RunID); err != nil {
		t.Errorf("report not persisted: %v", err)
	}
	tasks, _ := repo.LoadTasks(report.RunID)
	if len(tasks) != 3 {
		t.Errorf("expected 3 persisted tasks, got %d", len(tasks))
	}
	if got := len(repo.actions("run.reported")); got != 1 {
		t.Errorf("expected one run.reported event, got %d", got)
	}
	if got := len(repo.actions("task.succeeded")); got != 3 {
		t.Errorf("expected three task.succeeded events, got %d", got)
	}
}

func TestExecuteRejectsUnreadableArtifact(t *testing.T) {
	repo := newMemoryRepo()
	svc := newRunService(t, repo, lensOutputs{})

	req := paymentFormRequest()
	req.ArtifactRef = "missing.tsx"
	_, err := svc.Execute(context.Background(), req)
	if !errors.Is(err, review.ErrArtifactUnresolvable) {
		t.Fatalf("expected ErrArtifactUnresolvable, got %v", err)
	}
	if runs, _ := repo.ListRuns(); len(runs) != 0 {
		t.Error("no run record should exist after a config rejection")
	}
}

func TestExecuteRejectsBadConfigBeforePersisting(t *testing.T) {
	repo := newMemoryRepo()
	svc := newRunService(t, repo, lensOutputs{})

	req := paymentFormRequest()
	req.Lenses = append(req.Lenses, review.LensConfig{ID: "usability", Category: "usability"})
	_, err := svc.Execute(context.Background(), req)
	var cfgErr *review.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for duplicate lens id, got %v", err)
	}
	if runs, _ := repo.ListRuns(); len(runs) != 0 {
		t.Error("no run record should exist after a config rejection")
	}
}

func TestExecutePartialFailureMarksRunFailed(t *testing.T) {
	repo := newMemoryRepo()
	outputs := lensOutputs{
		"usability": {raw: lens.MarshalFindings([]lens.RawFinding{
			rawFinding("usability", "minor", "PaymentForm.tsx", "", "labels could be clearer"),
		})},
		"a11y":        {err: fmt.Errorf("model backend unavailable")},
		"duplication": {err: fmt.Errorf("parser crashed")},
	}
	svc := newRunService(t, repo, outputs)

	_, err := svc.Execute(context.Background(), paymentFormRequest())
	var partial *review.PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if partial.Succeeded != 1 || partial.Required != 2 {
		t.Errorf("unexpected failure counts: %+v", partial)
	}

	runs, _ := repo.ListRuns()
	if len(runs) != 1 {
		t.Fatalf("expected the failed run to be persisted, got %d runs", len(runs))
	}
	if runs[0].State != review.RunFailed {
		t.Errorf("expected failed state, got %s", runs[0].State)
	}
	if runs[0].Error == "" {
		t.Error("failed run should record the cause")
	}
}

func TestExecuteQuarantinesMalformedEntries(t *testing.T) {
	repo := newMemoryRepo()
	outputs := lensOutputs{
		"usability": {raw: []byte(`[
			{"category":"usability","severity":"major","locator":"PaymentForm.tsx:expiry-field","description":"expiry field does not auto-format input"},
			{"category":"usability","severity":"catastrophic","locator":"PaymentForm.tsx","description":"bad severity"}
		]`)},
		"a11y":        {raw: []byte(`not json at all`)},
		"duplication": {raw: []byte(`[]`)},
	}
	svc := newRunService(t, repo, outputs)

	report, err := svc.Execute(context.Background(), paymentFormRequest())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(report.Findings) != 1 {
		t.Errorf("expected 1 valid finding, got %d", len(report.Findings))
	}
	if len(report.UnparseableOutputs) != 2 {
		t.Fatalf("expected 2 quarantined entries, got %d", len(report.UnparseableOutputs))
	}
	// A malformed entry never fails its task.
	if report.Summary.SucceededTasks != 3 || report.Summary.FailedTasks != 0 {
		t.Errorf("quarantine must not fail tasks: %+v", report.Summary)
	}
	quarantined, _ := repo.LoadQuarantine(report.RunID)
	if len(quarantined) != 2 {
		t.Errorf("quarantine not persisted, got %d entries", len(quarantined))
	}
}

func TestResynthesizeReproducesReport(t *testing.T) {
	repo := newMemoryRepo()
	outputs := lensOutputs{
		"usability": {raw: lens.MarshalFindings([]lens.RawFinding{
			rawFinding("usability", "major", "PaymentForm.tsx", "expiry-field", "expiry field does not auto-format input"),
		})},
		"a11y": {raw: lens.MarshalFindings([]lens.RawFinding{
			rawFinding("accessibility", "major", "PaymentForm.tsx", "expiry-field", "expiry field does not auto-format the input"),
		})},
		"duplication": {err: fmt.Errorf("parser crashed")},
	}
	svc := newRunService(t, repo, outputs)

	original, err := svc.Execute(context.Background(), paymentFormRequest())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	replayed, err := svc.Resynthesize(original.RunID)
	if err != nil {
		t.Fatalf("resynthesize failed: %v", err)
	}
	if !reflect.DeepEqual(original, replayed) {
		t.Errorf("replay must reproduce the original report exactly:\noriginal %+v\nreplayed %+v", original, replayed)
	}
	if got := len(repo.actions("run.replayed")); got != 1 {
		t.Errorf("expected one run.replayed event, got %d", got)
	}
}

func TestResynthesizeUnknownRun(t *testing.T) {
	repo := newMemoryRepo()
	svc := newRunService(t, repo, lensOutputs{})
	if _, err := svc.Resynthesize("run-nope"); !errors.Is(err, review.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
