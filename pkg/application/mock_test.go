package application_test

import (
	"sort"

	"github.com/felixgeelhaar/revu/pkg/domain"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// memoryRepo is an in-memory WorkspaceRepository for service tests.
type memoryRepo struct {
	runs        map[string]review.Run
	tasks       map[string][]review.AnalysisTask
	findings    map[string][]review.Finding
	quarantine  map[string][]review.QuarantinedOutput
	reports     map[string]review.SynthesisReport
	actionItems map[string][]review.ActionItem
	events      []domain.Event
}

var _ domain.WorkspaceRepository = (*memoryRepo)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		runs:        make(map[string]review.Run),
		tasks:       make(map[string][]review.AnalysisTask),
		findings:    make(map[string][]review.Finding),
		quarantine:  make(map[string][]review.QuarantinedOutput),
		reports:     make(map[string]review.SynthesisReport),
		actionItems: make(map[string][]review.ActionItem),
	}
}

func (m *memoryRepo) Initialize() error   { return nil }
func (m *memoryRepo) IsInitialized() bool { return true }

func (m *memoryRepo) SaveRun(run *review.Run) error {
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryRepo) LoadRun(runID string) (*review.Run, error) {
	run, ok := m.runs[runID]
	if !ok {
		return nil, review.ErrRunNotFound
	}
	return &run, nil
}

func (m *memoryRepo) ListRuns() ([]review.Run, error) {
	out := make([]review.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepo) SaveTasks(runID string, tasks []review.AnalysisTask) error {
	m.tasks[runID] = tasks
	return nil
}

func (m *memoryRepo) LoadTasks(runID string) ([]review.AnalysisTask, error) {
	return m.tasks[runID], nil
}

func (m *memoryRepo) SaveFindings(runID string, findings []review.Finding) error {
	m.findings[runID] = findings
	return nil
}

func (m *memoryRepo) LoadFindings(runID string) ([]review.Finding, error) {
	return m.findings[runID], nil
}

func (m *memoryRepo) SaveQuarantine(runID string, quarantined []review.QuarantinedOutput) error {
	m.quarantine[runID] = quarantined
	return nil
}

func (m *memoryRepo) LoadQuarantine(runID string) ([]review.QuarantinedOutput, error) {
	return m.quarantine[runID], nil
}

func (m *memoryRepo) SaveReport(report *review.SynthesisReport) error {
	m.reports[report.RunID] = *report
	return nil
}

func (m *memoryRepo) LoadReport(runID string) (*review.SynthesisReport, error) {
	report, ok := m.reports[runID]
	if !ok {
		return nil, review.ErrRunNotReported
	}
	return &report, nil
}

func (m *memoryRepo) SaveActionItems(runID string, items []review.ActionItem) error {
	m.actionItems[runID] = items
	return nil
}

func (m *memoryRepo) LoadActionItems(runID string) ([]review.ActionItem, error) {
	return m.actionItems[runID], nil
}

func (m *memoryRepo) RecordEvent(event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memoryRepo) LoadEvents() ([]domain.Event, error) {
	return m.events, nil
}

func (m *memoryRepo) actions(filter string) []domain.Event {
	var out []domain.Event
	for _, e := range m.events {
		if e.Action == filter {
			out = append(out, e)
		}
	}
	return out
}
