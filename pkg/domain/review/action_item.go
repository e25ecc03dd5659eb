package review

import "time"

// ActionItemStatus tracks a materialized action item.
type ActionItemStatus string

const (
	ActionOpen ActionItemStatus = "open"
	ActionDone ActionItemStatus = "done"
)

// ActionItem is a human-approved conversion of one cluster into a tracked
// item. Identity is the (RunID, ClusterID) pair: approving the same cluster
// twice returns the existing item, never a duplicate.
type ActionItem struct {
	ID        string           `json:"id"`
	RunID     string           `json:"run_id"`
	ClusterID string           `json:"cluster_id"`
	Title     string           `json:"title"`
	Category  string           `json:"category"`
	Severity  Severity         `json:"severity"`
	Status    ActionItemStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// Key returns the unique identity of the item within the workspace.
func (a ActionItem) Key() string {
	return a.RunID + "/" + a.ClusterID
}
