package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
)

// goodLens is a minimal in-process analyzer for testing the suite runner.
func goodLens() lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		return lens.MarshalFindings([]lens.RawFinding{
			{
				Category:    "gap",
				Severity:    "minor",
				Locator:     lens.RawLocator{Path: req.ArtifactRef},
				Description: "contract check finding",
			},
		}), nil
	})
}

func TestContractSuite_RunWithAnalyzer(t *testing.T) {
	suite := NewContractSuite()
	result := suite.RunWithAnalyzer(goodLens())

	if result.Passed+result.Failed != len(result.Results) {
		t.Errorf("passed(%d) + failed(%d) != total(%d)", result.Passed, result.Failed, len(result.Results))
	}

	// All assertions should pass against a well-behaved lens
	for _, r := range result.Results {
		if !r.Passed {
			t.Errorf("assertion %s failed: %s", r.Name, r.Message)
		}
	}
}

// failingLens always errors, testing assertion failure paths.
func failingLens() lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		return nil, fmt.Errorf("backend unavailable")
	})
}

// nonArrayLens returns a JSON object instead of the expected array.
func nonArrayLens() lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"findings": []}`), nil
	})
}

// malformedLens emits an entry with an unknown severity.
func malformedLens() lens.Analyzer {
	return lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		return json.RawMessage(`[{"category":"gap","severity":"catastrophic","locator":{"path":"x"},"description":"d"}]`), nil
	})
}

func TestAssertAnalyzeReturnsOutput_Failure(t *testing.T) {
	r := AssertAnalyzeReturnsOutput(failingLens())
	if r.Passed {
		t.Error("expected AnalyzeReturnsOutput to fail with failingLens")
	}
	if r.Name != "AnalyzeReturnsOutput" {
		t.Errorf("expected name 'AnalyzeReturnsOutput', got %q", r.Name)
	}
}

func TestAssertOutputIsJSONArray_NonArray(t *testing.T) {
	r := AssertOutputIsJSONArray(nonArrayLens())
	if r.Passed {
		t.Error("expected OutputIsJSONArray to fail with an object payload")
	}
}

func TestAssertEntriesWellFormed_BadSeverity(t *testing.T) {
	r := AssertEntriesWellFormed(malformedLens())
	if r.Passed {
		t.Error("expected EntriesWellFormed to fail with unknown severity")
	}
}

func TestAssertRepeatedCalls_Failure(t *testing.T) {
	calls := 0
	flaky := lens.Func(func(ctx context.Context, req lens.Request) (json.RawMessage, error) {
		calls++
		if calls > 1 {
			return nil, fmt.Errorf("crashed on call %d", calls)
		}
		return json.RawMessage(`[]`), nil
	})
	r := AssertRepeatedCalls(flaky)
	if r.Passed {
		t.Error("expected RepeatedCalls to fail with a flaky lens")
	}
}

func TestContractSuite_RunWithFailingAnalyzer(t *testing.T) {
	suite := NewContractSuite()
	result := suite.RunWithAnalyzer(failingLens())

	if result.Passed+result.Failed != len(result.Results) {
		t.Errorf("passed(%d) + failed(%d) != total(%d)", result.Passed, result.Failed, len(result.Results))
	}

	if result.Failed == 0 {
		t.Error("expected some failures with failingLens")
	}
}

func TestRunBinary_NotFound(t *testing.T) {
	suite := NewContractSuite()
	_, err := suite.RunBinary("/nonexistent/path/to/plugin")
	if err == nil {
		t.Error("expected error for nonexistent binary")
	}
}

func TestRunBinary_NotExecutable(t *testing.T) {
	// Create a temp file that is NOT executable
	dir := t.TempDir()
	path := filepath.Join(dir, "not-executable")
	if err := os.WriteFile(path, []byte("not a real binary"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	suite := NewContractSuite()
	_, err := suite.RunBinary(path)
	if err == nil {
		t.Error("expected error for non-executable file")
	}
}
