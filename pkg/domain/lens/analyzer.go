// Package lens defines the analyzer capability behind each analysis task.
// An analyzer may wrap an LLM call, a static-analysis subprocess, or a
// script; the engine only sees its raw output, which the normalizer
// validates before anything downstream runs.
package lens

import (
	"context"
	"encoding/json"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// RawFinding is the wire shape every analyzer is expected to emit, one per
// array element. Validation happens in the normalizer, not here.
type RawFinding struct {
	Category     string     `json:"category"`
	Severity     string     `json:"severity"`
	Locator      RawLocator `json:"locator"`
	Description  string     `json:"description"`
	Confidence   float64    `json:"confidence,omitempty"`
	SuggestedFix string     `json:"suggested_fix,omitempty"`
}

// RawLocator mirrors review.Locator on the analyzer wire.
type RawLocator struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Section   string `json:"section,omitempty"`
}

// Request carries the analyzer inputs.
type Request struct {
	ArtifactRef string            `json:"artifact_ref"`
	Params      map[string]string `json:"params,omitempty"`
}

// Analyzer is the interface a lens backend must implement.
type Analyzer interface {
	// Analyze inspects the artifact and returns its raw output, nominally a
	// JSON array of RawFinding objects, or an error to mark the task
	// failed. The context carries the per-task timeout and the run's
	// global deadline.
	Analyze(ctx context.Context, req Request) (json.RawMessage, error)
}

// MarshalFindings renders findings in the wire format. Convenience for
// in-process and plugin analyzers.
func MarshalFindings(findings []RawFinding) json.RawMessage {
	raw, err := json.Marshal(findings)
	if err != nil {
		return json.RawMessage("[]")
	}
	return raw
}

// AnalyzerPlugin is the go-plugin wrapper so an Analyzer can be served from a
// subprocess binary over net/rpc.
type AnalyzerPlugin struct {
	Impl Analyzer
}

func (p *AnalyzerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &AnalyzerRPCServer{Impl: p.Impl}, nil
}

func (p *AnalyzerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &AnalyzerRPCClient{Client: c}, nil
}

// AnalyzerRPCClient forwards Analyze calls to the plugin process.
// net/rpc cannot carry a context across the process boundary; cancellation is
// enforced on the engine side by abandoning the call.
type AnalyzerRPCClient struct{ Client *rpc.Client }

func (g *AnalyzerRPCClient) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	type result struct {
		raw json.RawMessage
		err error
	}
	done := make(chan result, 1)
	go func() {
		var resp json.RawMessage
		err := g.Client.Call("Plugin.Analyze", req, &resp)
		done <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.raw, r.err
	}
}

// AnalyzerRPCServer serves an in-process Analyzer over net/rpc.
type AnalyzerRPCServer struct{ Impl Analyzer }

func (s *AnalyzerRPCServer) Analyze(req Request, resp *json.RawMessage) error {
	raw, err := s.Impl.Analyze(context.Background(), req)
	if raw != nil {
		*resp = raw
	}
	return err
}

// Func adapts a plain function to the Analyzer interface. Used by tests and
// in-process lenses.
type Func func(ctx context.Context, req Request) (json.RawMessage, error)

func (f Func) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	return f(ctx, req)
}
