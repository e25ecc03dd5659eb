package main

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/hashicorp/go-plugin"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	infraPlugin "github.com/felixgeelhaar/revu/pkg/plugin"
)

// MockAnalyzer emits a fixed, well-formed finding set so workspaces can be
// exercised without a real analysis backend. REVU params tune its behavior:
// "count" caps the number of findings, "category" overrides the default.
type MockAnalyzer struct{}

func (m *MockAnalyzer) Analyze(ctx context.Context, req lens.Request) (json.RawMessage, error) {
	log.Printf("mock lens analyzing %s", req.ArtifactRef)

	category := req.Params["category"]
	if category == "" {
		category = "gap"
	}

	findings := []lens.RawFinding{
		{
			Category:    category,
			Severity:    "major",
			Locator:     lens.RawLocator{Path: req.ArtifactRef, StartLine: 1, EndLine: 5},
			Description: "mock finding: primary path lacks error handling",
			Confidence:  0.8,
		},
		{
			Category:    category,
			Severity:    "minor",
			Locator:     lens.RawLocator{Path: req.ArtifactRef},
			Description: "mock finding: naming could be clearer",
			Confidence:  0.5,
		},
	}

	if raw := req.Params["count"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n < len(findings) {
			findings = findings[:n]
		}
	}

	return lens.MarshalFindings(findings), nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: infraPlugin.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			"analyzer": &lens.AnalyzerPlugin{Impl: &MockAnalyzer{}},
		},
	})
}
