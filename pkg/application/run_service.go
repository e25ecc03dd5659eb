package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/revu/pkg/cluster"
	"github.com/felixgeelhaar/revu/pkg/dispatch"
	"github.com/felixgeelhaar/revu/pkg/domain"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
	"github.com/felixgeelhaar/revu/pkg/normalize"
	"github.com/felixgeelhaar/revu/pkg/synthesize"
)

// ArtifactResolver loads the content behind an artifact reference so the run
// can pin an immutable snapshot. The default reads from the local filesystem.
type ArtifactResolver func(ref string) ([]byte, error)

// RunService orchestrates the full pipeline: resolve the artifact, dispatch
// the lenses, normalize their output, cluster, synthesize, and persist every
// stage so a run can be inspected or replayed later.
type RunService struct {
	repo     domain.WorkspaceRepository
	audit    domain.AuditLogger
	factory  dispatch.AnalyzerFactory
	resolver ArtifactResolver
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunService(repo domain.WorkspaceRepository, audit domain.AuditLogger, factory dispatch.AnalyzerFactory, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		repo:     repo,
		audit:    audit,
		factory:  factory,
		resolver: os.ReadFile,
		logger:   logger,
		now:      time.Now,
	}
}

// WithResolver overrides how artifact references are read. Used by tests and
// by callers whose artifacts do not live on the local filesystem.
func (s *RunService) WithResolver(resolver ArtifactResolver) *RunService {
	s.resolver = resolver
	return s
}

// ExecuteRequest describes one synthesis run.
type ExecuteRequest struct {
	ArtifactRef string
	Lenses      []review.LensConfig
	Categories  []string
	Policy      review.ClusterPolicy
	Options     review.RunOptions
}

// Execute runs the whole pipeline for one artifact. Configuration problems
// are rejected before any durable record exists; once dispatch begins, the
// run record tracks every state it passes through, including failure.
func (s *RunService) Execute(ctx context.Context, req ExecuteRequest) (*review.SynthesisReport, error) {
	content, err := s.resolver(req.ArtifactRef)
	if err != nil {
		return nil, &review.ConfigError{
			Reason: fmt.Sprintf("cannot read artifact %q: %v", req.ArtifactRef, err),
			Err:    review.ErrArtifactUnresolvable,
		}
	}

	opts := withDefaults(req.Options, len(req.Lenses))
	artifact := review.NewArtifact(uuid.New().String(), req.ArtifactRef, content)
	if err := dispatch.ValidateRunConfig(artifact, req.Lenses, opts); err != nil {
		return nil, err
	}

	now := s.now()
	run := &review.Run{
		ID:          "run-" + uuid.New().String()[:8],
		Artifact:    artifact,
		LensConfigs: req.Lenses,
		Categories:  categoriesFor(req),
		Policy:      req.Policy,
		Options:     opts,
		State:       review.RunCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	fsm, err := review.NewRunStateMachine(review.StateCreated, run.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRun(run); err != nil {
		return nil, err
	}
	if err := s.audit.Log("run.created", "engine", map[string]interface{}{
		"run_id":   run.ID,
		"artifact": run.Artifact.Ref,
		"hash":     run.Artifact.ContentHash,
		"lenses":   len(run.LensConfigs),
	}); err != nil {
		return nil, err
	}

	if err := s.advance(run, fsm, "dispatch"); err != nil {
		return nil, err
	}

	observer := func(task review.AnalysisTask) {
		if !task.Status.IsTerminal() {
			return
		}
		_ = s.audit.Log("task."+task.Status.String(), "engine", map[string]interface{}{
			"run_id":  run.ID,
			"task_id": task.ID,
			"lens_id": task.LensID,
		})
	}
	dispatcher := dispatch.NewDispatcher(s.factory, observer, s.logger)
	result, err := dispatcher.Dispatch(ctx, run.Artifact, run.LensConfigs, run.Options)
	if err != nil {
		return nil, s.fail(run, fsm, err)
	}
	if err := s.repo.SaveTasks(run.ID, result.Tasks); err != nil {
		return nil, s.fail(run, fsm, err)
	}

	if err := s.advance(run, fsm, "collect"); err != nil {
		return nil, err
	}
	if err := s.advance(run, fsm, "synthesize"); err != nil {
		return nil, err
	}

	report, quarantined, err := s.synthesizeFromTasks(run, result.Tasks, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistSynthesis(run.ID, report, quarantined); err != nil {
		return nil, err
	}

	if err := s.advance(run, fsm, "report"); err != nil {
		return nil, err
	}
	if err := s.audit.Log("run.reported", "engine", map[string]interface{}{
		"run_id":      run.ID,
		"clusters":    report.Summary.TotalClusters,
		"critical":    report.Summary.CriticalCount,
		"failed":      report.Summary.FailedTasks,
		"quarantined": len(report.UnparseableOutputs),
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// Resynthesize rebuilds a run's report from its persisted tasks, without
// re-running any analyzer. The run's own clustering policy and category set
// apply, so the replay reproduces the original report exactly.
func (s *RunService) Resynthesize(runID string) (*review.SynthesisReport, error) {
	run, err := s.repo.LoadRun(runID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.LoadTasks(runID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("run %s has no persisted tasks to replay", runID)
	}

	generatedAt := s.now()
	if original, err := s.repo.LoadReport(runID); err == nil {
		// Keep the original timestamp so replay output is byte-identical.
		generatedAt = original.GeneratedAt
	}

	report, quarantined, err := s.synthesizeFromTasks(run, tasks, generatedAt)
	if err != nil {
		return nil, err
	}
	if err := s.persistSynthesis(run.ID, report, quarantined); err != nil {
		return nil, err
	}
	if err := s.audit.Log("run.replayed", "engine", map[string]interface{}{
		"run_id":   run.ID,
		"clusters": report.Summary.TotalClusters,
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// GetRun loads one run record.
func (s *RunService) GetRun(runID string) (*review.Run, error) {
	return s.repo.LoadRun(runID)
}

// GetReport loads a run's synthesis report.
func (s *RunService) GetReport(runID string) (*review.SynthesisReport, error) {
	return s.repo.LoadReport(runID)
}

// GetTasks loads a run's terminal task set.
func (s *RunService) GetTasks(runID string) ([]review.AnalysisTask, error) {
	return s.repo.LoadTasks(runID)
}

// ListRuns lists every run in the workspace, oldest first.
func (s *RunService) ListRuns() ([]review.Run, error) {
	return s.repo.ListRuns()
}

func (s *RunService) synthesizeFromTasks(run *review.Run, tasks []review.AnalysisTask, generatedAt time.Time) (*review.SynthesisReport, []review.QuarantinedOutput, error) {
	findings, quarantined := normalize.New(run.Categories).Normalize(tasks)
	clusters := cluster.New(run.Policy).Cluster(findings)
	report, err := synthesize.New().Synthesize(synthesize.Input{
		RunID:              run.ID,
		Artifact:           run.Artifact,
		Clusters:           clusters,
		Findings:           findings,
		Tasks:              tasks,
		UnparseableOutputs: quarantined,
		GeneratedAt:        generatedAt,
	})
	if err != nil {
		return nil, nil, err
	}
	return report, quarantined, nil
}

func (s *RunService) persistSynthesis(runID string, report *review.SynthesisReport, quarantined []review.QuarantinedOutput) error {
	if err := s.repo.SaveFindings(runID, report.Findings); err != nil {
		return err
	}
	if err := s.repo.SaveQuarantine(runID, quarantined); err != nil {
		return err
	}
	return s.repo.SaveReport(report)
}

// advance moves the run through one lifecycle event and persists the new
// state before anything else happens in it.
func (s *RunService) advance(run *review.Run, fsm *review.RunStateMachine, event string) error {
	if err := fsm.Transition(event); err != nil {
		return err
	}
	run.State = fsm.CurrentState()
	run.UpdatedAt = s.now()
	if err := s.repo.SaveRun(run); err != nil {
		return err
	}
	return s.audit.Log("run.transition", "engine", map[string]interface{}{
		"run_id": run.ID,
		"state":  run.State.String(),
	})
}

// fail records the terminal failure and returns the original cause.
func (s *RunService) fail(run *review.Run, fsm *review.RunStateMachine, cause error) error {
	if ferr := fsm.Transition("fail"); ferr == nil {
		run.State = review.RunFailed
		run.Error = cause.Error()
		run.UpdatedAt = s.now()
		if serr := s.repo.SaveRun(run); serr != nil {
			s.logger.Error("failed to persist failed run", "run", run.ID, "error", serr)
		}
		_ = s.audit.Log("run.failed", "engine", map[string]interface{}{
			"run_id": run.ID,
			"error":  cause.Error(),
		})
	}
	return cause
}

// categoriesFor derives the run's accepted category set: the explicit request
// list when given, otherwise the categories declared by the lenses.
func categoriesFor(req ExecuteRequest) []string {
	if len(req.Categories) > 0 {
		return req.Categories
	}
	set := make(map[string]bool)
	for _, l := range req.Lenses {
		if l.Category != "" {
			set[l.Category] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func withDefaults(opts review.RunOptions, lensCount int) review.RunOptions {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if opts.MinRequiredSuccesses <= 0 && lensCount > 0 {
		opts.MinRequiredSuccesses = 1
	}
	return opts
}
