// Package lensexec adapts an external executable to the Analyzer interface.
// The executable receives the artifact reference as its last argument and
// lens parameters via REVU_PARAM_* environment variables, and must print a
// JSON array of findings on stdout. A non-zero exit marks the task failed.
package lensexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
)

// ExecLens runs a command-line analyzer.
type ExecLens struct {
	argv []string
}

// New validates the argv and returns an exec-backed lens.
func New(argv []string) (*ExecLens, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("exec lens requires a command")
	}
	return &ExecLens{argv: argv}, nil
}

// Analyze runs the command under the task's context; cancellation kills the
// process.
func (l *ExecLens) Analyze(ctx context.Context, req lens.Request) (json.RawMessage, error) {
	args := make([]string, 0, len(l.argv))
	args = append(args, l.argv[1:]...)
	args = append(args, req.ArtifactRef)

	cmd := exec.CommandContext(ctx, l.argv[0], args...)
	cmd.Env = append(os.Environ(), paramEnv(req.Params)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("analyzer %s failed: %w: %s", l.argv[0], err, detail)
		}
		return nil, fmt.Errorf("analyzer %s failed: %w", l.argv[0], err)
	}

	// A successful invocation hands its raw bytes to the normalizer, which
	// quarantines whatever it cannot parse.
	return json.RawMessage(stdout.Bytes()), nil
}

func paramEnv(params map[string]string) []string {
	env := make([]string, 0, len(params))
	for k, v := range params {
		key := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(k))
		env = append(env, "REVU_PARAM_"+key+"="+v)
	}
	return env
}
