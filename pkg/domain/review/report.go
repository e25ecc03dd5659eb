package review

import "time"

// FailedTask describes a lens that did not contribute to the synthesis, so a
// reader can calibrate trust in the report.
type FailedTask struct {
	TaskID string     `json:"task_id"`
	LensID string     `json:"lens_id"`
	Status TaskStatus `json:"status"` // failed or timedout
	Error  string     `json:"error,omitempty"`
}

// QuarantinedOutput records one raw finding entry that failed validation.
// The offending entry is preserved verbatim alongside the reason.
type QuarantinedOutput struct {
	TaskID string `json:"task_id"`
	LensID string `json:"lens_id"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// ReportSummary aggregates counts a human scans first.
type ReportSummary struct {
	TotalClusters  int `json:"total_clusters"`
	CriticalCount  int `json:"critical_count"`
	SucceededTasks int `json:"succeeded_tasks"`
	FailedTasks    int `json:"failed_tasks"`
	// RequiresImmediateAttention is set when any cluster resolved critical.
	RequiresImmediateAttention bool `json:"requires_immediate_attention"`
}

// SynthesisReport is the run's final output. Cluster order is a pure function
// of the finding set; the report is immutable once generated.
type SynthesisReport struct {
	RunID              string              `json:"run_id"`
	Artifact           Artifact            `json:"artifact"`
	GeneratedAt        time.Time           `json:"generated_at"`
	Clusters           []FindingCluster    `json:"clusters"`
	Findings           []Finding           `json:"findings"`
	FailedTasks        []FailedTask        `json:"failed_tasks"`
	UnparseableOutputs []QuarantinedOutput `json:"unparseable_outputs"`
	Summary            ReportSummary       `json:"summary"`
}

// FindingByID looks up a member finding embedded in the report.
func (r *SynthesisReport) FindingByID(id string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return Finding{}, false
}

// ClusterByID looks up a cluster by id.
func (r *SynthesisReport) ClusterByID(id string) (FindingCluster, bool) {
	for _, c := range r.Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return FindingCluster{}, false
}
