package contract

import (
	"fmt"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	infraPlugin "github.com/felixgeelhaar/revu/pkg/plugin"
)

// ContractSuite runs all contract assertions against an analyzer lens.
type ContractSuite struct {
	loader *infraPlugin.Loader
}

// NewContractSuite creates a new contract suite.
func NewContractSuite() *ContractSuite {
	return &ContractSuite{
		loader: infraPlugin.NewLoader(),
	}
}

// SuiteResult aggregates results from running the full contract suite.
type SuiteResult struct {
	Results []Result
	Passed  int
	Failed  int
}

// RunWithAnalyzer runs the contract suite against an already-loaded analyzer.
func (s *ContractSuite) RunWithAnalyzer(analyzer lens.Analyzer) *SuiteResult {
	assertions := []func(lens.Analyzer) Result{
		AssertAnalyzeReturnsOutput,
		AssertOutputIsJSONArray,
		AssertEntriesWellFormed,
		AssertHonorsParams,
		AssertRepeatedCalls,
	}

	sr := &SuiteResult{}
	for _, assert := range assertions {
		result := assert(analyzer)
		sr.Results = append(sr.Results, result)
		if result.Passed {
			sr.Passed++
		} else {
			sr.Failed++
		}
	}
	return sr
}

// RunBinary loads an analyzer plugin binary and runs the full contract suite.
func (s *ContractSuite) RunBinary(path string) (*SuiteResult, error) {
	defer s.loader.Cleanup()

	analyzer, err := s.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load plugin: %w", err)
	}

	return s.RunWithAnalyzer(analyzer), nil
}
