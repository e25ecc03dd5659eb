// Package storage persists revu records in the .revu/ directory so that a
// synthesis can be replayed from durable state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/revu/pkg/domain"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

const RevuDir = ".revu"
const RunsDir = "runs"
const RunFile = "run.json"
const TasksFile = "tasks.json"
const FindingsFile = "findings.json"
const QuarantineFile = "quarantine.json"
const ReportFile = "report.json"
const ActionsFile = "actions.json"
const EventsFile = "events.jsonl"
const LensesFile = "lenses.yaml"

// runIDPattern keeps run directories flat and traversal-free.
var runIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// FilesystemRepository stores every record as JSON under root/.revu.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

// Compile-time check that the repository satisfies the domain interface.
var _ domain.WorkspaceRepository = (*FilesystemRepository)(nil)

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, RevuDir, RunsDir)
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create .revu directory: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, RevuDir))
	return err == nil
}

// resolveRunPath validates the run id and returns the path of one of its
// record files, creating the run directory on demand.
func (r *FilesystemRepository) resolveRunPath(runID, filename string, create bool) (string, error) {
	if !runIDPattern.MatchString(runID) {
		return "", fmt.Errorf("invalid run id: %q", runID)
	}
	dir := filepath.Join(r.root, RevuDir, RunsDir, runID)
	if create {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("failed to create run directory: %w", err)
		}
	}
	return filepath.Join(dir, filename), nil
}

func (r *FilesystemRepository) SaveRun(run *review.Run) error {
	path, err := r.resolveRunPath(run.ID, RunFile, true)
	if err != nil {
		return err
	}
	return writeJSON(path, run)
}

func (r *FilesystemRepository) LoadRun(runID string) (*review.Run, error) {
	path, err := r.resolveRunPath(runID, RunFile, false)
	if err != nil {
		return nil, err
	}
	run, err := readJSON[review.Run](r, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, review.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (r *FilesystemRepository) ListRuns() ([]review.Run, error) {
	dir := filepath.Join(r.root, RevuDir, RunsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []review.Run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := r.LoadRun(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}

func (r *FilesystemRepository) SaveTasks(runID string, tasks []review.AnalysisTask) error {
	path, err := r.resolveRunPath(runID, TasksFile, true)
	if err != nil {
		return err
	}
	return writeJSON(path, tasks)
}

func (r *FilesystemRepository) LoadTasks(runID string) ([]review.AnalysisTask, error) {
	return readRunSlice[review.AnalysisTask](r, runID, TasksFile)
}

func (r *FilesystemRepository) SaveFindings(runID string, findings []review.Finding) error {
	path, err := r.resolveRunPath(runID, FindingsFile, true)
	if err != nil {
		return err
	}
	return writeJSON(path, findings)
}

func (r *FilesystemRepository) LoadFindings(runID string) ([]review.Finding, error) {
	return readRunSlice[review.Finding](r, runID, FindingsFile)
}

func (r *FilesystemRepository) SaveQuarantine(runID string, quarantined []review.QuarantinedOutput) error {
	path, err := r.resolveRunPath(runID, QuarantineFile, true)
	if err != nil {
		return err
	}
	return writeJSON(path, quarantined)
}

func (r *FilesystemRepository) LoadQuarantine(runID string) ([]review.QuarantinedOutput, error) {
	return readRunSlice[review.QuarantinedOutput](r, runID, QuarantineFile)
}

func (r *FilesystemRepository) SaveReport(report *review.SynthesisReport) error {
	path, err := r.resolveRunPath(report.RunID, ReportFile, true)
	if err != nil {
		return err
	}
	return writeJSON(path, report)
}

func (r *FilesystemRepository) LoadReport(runID string) (*review.SynthesisReport, error) {
	path, err := r.resolveRunPath(runID, ReportFile, false)
	if err != nil {
		return nil, err
	}
	report, err := readJSON[review.SynthesisReport](r, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, review.ErrRunNotReported
		}
		return nil, err
	}
	return report, nil
}

func (r *FilesystemRepository) SaveActionItems(runID string, items []review.ActionItem) error {
	path, err := r.resolveRunPath(runID, ActionsFile, true)
	if err != nil {
		return err
	}
	return writeJSON(path, items)
}

func (r *FilesystemRepository) LoadActionItems(runID string) ([]review.ActionItem, error) {
	return readRunSlice[review.ActionItem](r, runID, ActionsFile)
}

// writeJSON persists a record with conservative file permissions.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

// readJSON loads a record, retrying transient read errors the same way the
// rest of the repository does.
func readJSON[T any](r *FilesystemRepository, path string) (*T, error) {
	retryer := retry.New[*T](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*T, error) {
		// #nosec G304 -- Path is resolved and validated via resolveRunPath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
		}
		return &v, nil
	})
}

func readRunSlice[T any](r *FilesystemRepository, runID, filename string) ([]T, error) {
	path, err := r.resolveRunPath(runID, filename, false)
	if err != nil {
		return nil, err
	}
	out, err := readJSON[[]T](r, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return *out, nil
}

// SanitizeRunID turns an arbitrary string into a valid run directory name.
func SanitizeRunID(id string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, id)
	return strings.Trim(cleaned, "-")
}
