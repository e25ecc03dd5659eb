package review

// DissentNote preserves a minority assessment verbatim when a cluster resolves
// by majority. Nothing a lens reported is ever discarded.
type DissentNote struct {
	FindingID string   `json:"finding_id"`
	TaskID    string   `json:"task_id"`
	Category  string   `json:"category"`
	Severity  Severity `json:"severity"`
	Note      string   `json:"note"`
}

// FindingCluster is a set of findings judged equivalent across tasks,
// possibly of size one. Members and source tasks are kept sorted so the
// record is a pure function of its finding set.
type FindingCluster struct {
	ID               string         `json:"cluster_id"`
	MemberIDs        []string       `json:"members"`
	SourceTasks      []string       `json:"source_tasks"`
	ResolvedSeverity Severity       `json:"resolved_severity"`
	ConfidenceTier   ConfidenceTier `json:"confidence_tier"`
	DissentNotes     []DissentNote  `json:"dissent_notes,omitempty"`
}
