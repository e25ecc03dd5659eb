package domain

import "github.com/felixgeelhaar/revu/pkg/domain/review"

// WorkspaceRepository handles the persistence of revu records in the .revu/
// directory. Runs, tasks, findings, and reports are stored per run so a
// synthesis can be replayed from durable state.
type WorkspaceRepository interface {
	Initialize() error
	IsInitialized() bool

	SaveRun(run *review.Run) error
	LoadRun(runID string) (*review.Run, error)
	ListRuns() ([]review.Run, error)

	SaveTasks(runID string, tasks []review.AnalysisTask) error
	LoadTasks(runID string) ([]review.AnalysisTask, error)

	SaveFindings(runID string, findings []review.Finding) error
	LoadFindings(runID string) ([]review.Finding, error)

	SaveQuarantine(runID string, quarantined []review.QuarantinedOutput) error
	LoadQuarantine(runID string) ([]review.QuarantinedOutput, error)

	SaveReport(report *review.SynthesisReport) error
	LoadReport(runID string) (*review.SynthesisReport, error)

	SaveActionItems(runID string, items []review.ActionItem) error
	LoadActionItems(runID string) ([]review.ActionItem, error)

	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
}
