// Package contract provides contract test assertions for revu analyzer lenses.
package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// Result captures the outcome of a single contract assertion.
type Result struct {
	Name    string
	Passed  bool
	Message string
}

func verifyContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// AssertAnalyzeReturnsOutput verifies that Analyze completes with a basic
// request and returns some raw output.
func AssertAnalyzeReturnsOutput(analyzer lens.Analyzer) Result {
	ctx, cancel := verifyContext()
	defer cancel()

	raw, err := analyzer.Analyze(ctx, lens.Request{ArtifactRef: "contract-check.txt"})
	if err != nil {
		return Result{Name: "AnalyzeReturnsOutput", Passed: false, Message: fmt.Sprintf("Analyze failed: %v", err)}
	}
	if len(raw) == 0 {
		return Result{Name: "AnalyzeReturnsOutput", Passed: false, Message: "Analyze returned empty output"}
	}
	return Result{Name: "AnalyzeReturnsOutput", Passed: true, Message: fmt.Sprintf("Analyze returned %d bytes", len(raw))}
}

// AssertOutputIsJSONArray verifies the output parses as a JSON array, the
// shape the normalizer expects for the whole payload.
func AssertOutputIsJSONArray(analyzer lens.Analyzer) Result {
	ctx, cancel := verifyContext()
	defer cancel()

	raw, err := analyzer.Analyze(ctx, lens.Request{ArtifactRef: "contract-check.txt"})
	if err != nil {
		return Result{Name: "OutputIsJSONArray", Passed: false, Message: fmt.Sprintf("Analyze failed: %v", err)}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Result{Name: "OutputIsJSONArray", Passed: false, Message: fmt.Sprintf("output is not a JSON array: %v", err)}
	}
	return Result{Name: "OutputIsJSONArray", Passed: true, Message: fmt.Sprintf("output carries %d entries", len(entries))}
}

// AssertEntriesWellFormed verifies every emitted entry has the required
// fields and a known severity. Entries that would land in quarantine fail
// the lens here instead.
func AssertEntriesWellFormed(analyzer lens.Analyzer) Result {
	ctx, cancel := verifyContext()
	defer cancel()

	raw, err := analyzer.Analyze(ctx, lens.Request{ArtifactRef: "contract-check.txt"})
	if err != nil {
		return Result{Name: "EntriesWellFormed", Passed: false, Message: fmt.Sprintf("Analyze failed: %v", err)}
	}
	var findings []lens.RawFinding
	if err := json.Unmarshal(raw, &findings); err != nil {
		return Result{Name: "EntriesWellFormed", Passed: false, Message: fmt.Sprintf("output does not decode as findings: %v", err)}
	}
	for i, f := range findings {
		if f.Category == "" || f.Description == "" || f.Locator.Path == "" {
			return Result{Name: "EntriesWellFormed", Passed: false, Message: fmt.Sprintf("entry %d is missing required fields", i)}
		}
		if _, err := review.ParseSeverity(f.Severity); err != nil {
			return Result{Name: "EntriesWellFormed", Passed: false, Message: fmt.Sprintf("entry %d: %v", i, err)}
		}
	}
	return Result{Name: "EntriesWellFormed", Passed: true, Message: fmt.Sprintf("%d entries well formed", len(findings))}
}

// AssertHonorsParams verifies the lens tolerates caller params. Params are
// opaque hints; ignoring them is acceptable, erroring on them is not.
func AssertHonorsParams(analyzer lens.Analyzer) Result {
	ctx, cancel := verifyContext()
	defer cancel()

	_, err := analyzer.Analyze(ctx, lens.Request{
		ArtifactRef: "contract-check.txt",
		Params:      map[string]string{"focus": "contract", "max-findings": "3"},
	})
	if err != nil {
		return Result{Name: "HonorsParams", Passed: false, Message: fmt.Sprintf("Analyze rejected params: %v", err)}
	}
	return Result{Name: "HonorsParams", Passed: true, Message: "params accepted"}
}

// AssertRepeatedCalls verifies the lens survives back-to-back invocations,
// since the dispatcher may reuse one analyzer across runs.
func AssertRepeatedCalls(analyzer lens.Analyzer) Result {
	ctx, cancel := verifyContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := analyzer.Analyze(ctx, lens.Request{ArtifactRef: "contract-check.txt"}); err != nil {
			return Result{Name: "RepeatedCalls", Passed: false, Message: fmt.Sprintf("call %d failed: %v", i+1, err)}
		}
	}
	return Result{Name: "RepeatedCalls", Passed: true, Message: "3 consecutive calls succeeded"}
}
