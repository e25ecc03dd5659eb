package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/revu/pkg/domain"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// Selection chooses which report clusters to approve. Exactly one mode
// applies: explicit cluster ids win over CriticalOnly, which wins over All.
type Selection struct {
	All          bool
	CriticalOnly bool
	ClusterIDs   []string
}

// ApprovalService converts approved clusters into tracked action items.
// Approval is idempotent per (run, cluster) pair: re-approving a cluster
// returns the existing item unchanged.
type ApprovalService struct {
	repo  domain.WorkspaceRepository
	audit domain.AuditLogger
	now   func() time.Time
}

func NewApprovalService(repo domain.WorkspaceRepository, audit domain.AuditLogger) *ApprovalService {
	return &ApprovalService{repo: repo, audit: audit, now: time.Now}
}

// Approve materializes the selected clusters as action items and returns the
// items for the selection, in the report's ranking order. The run must have
// reached reported; the report itself is never mutated.
func (s *ApprovalService) Approve(runID string, sel Selection) ([]review.ActionItem, error) {
	run, err := s.repo.LoadRun(runID)
	if err != nil {
		return nil, err
	}
	if run.State != review.RunReported {
		return nil, fmt.Errorf("run %s is %s: %w", runID, run.State, review.ErrRunNotReported)
	}
	report, err := s.repo.LoadReport(runID)
	if err != nil {
		return nil, err
	}

	selected, err := selectClusters(report, sel)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.LoadActionItems(runID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]review.ActionItem, len(items))
	for _, item := range items {
		byKey[item.Key()] = item
	}

	out := make([]review.ActionItem, 0, len(selected))
	created := 0
	for _, c := range selected {
		key := runID + "/" + c.ID
		if existing, ok := byKey[key]; ok {
			out = append(out, existing)
			continue
		}

		item := review.ActionItem{
			ID:        uuid.New().String(),
			RunID:     runID,
			ClusterID: c.ID,
			Title:     actionTitle(report, c),
			Category:  actionCategory(report, c),
			Severity:  c.ResolvedSeverity,
			Status:    review.ActionOpen,
			CreatedAt: s.now(),
		}
		items = append(items, item)
		byKey[key] = item
		out = append(out, item)
		created++

		if err := s.audit.Log("cluster.approved", "human", map[string]interface{}{
			"run_id":     runID,
			"cluster_id": c.ID,
			"severity":   c.ResolvedSeverity.String(),
			"tier":       c.ConfidenceTier.String(),
		}); err != nil {
			return nil, err
		}
	}

	if created > 0 {
		if err := s.repo.SaveActionItems(runID, items); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarkDone flips a cluster's action item to done. Already-done items pass
// through unchanged.
func (s *ApprovalService) MarkDone(runID, clusterID string) (*review.ActionItem, error) {
	items, err := s.repo.LoadActionItems(runID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ClusterID != clusterID {
			continue
		}
		if items[i].Status == review.ActionDone {
			return &items[i], nil
		}
		items[i].Status = review.ActionDone
		if err := s.repo.SaveActionItems(runID, items); err != nil {
			return nil, err
		}
		if err := s.audit.Log("action.done", "human", map[string]interface{}{
			"run_id":     runID,
			"cluster_id": clusterID,
		}); err != nil {
			return nil, err
		}
		return &items[i], nil
	}
	return nil, fmt.Errorf("no action item for cluster %s in run %s", clusterID, runID)
}

// ListActionItems returns every action item recorded for the run.
func (s *ApprovalService) ListActionItems(runID string) ([]review.ActionItem, error) {
	return s.repo.LoadActionItems(runID)
}

func selectClusters(report *review.SynthesisReport, sel Selection) ([]review.FindingCluster, error) {
	if len(sel.ClusterIDs) > 0 {
		wanted := make(map[string]bool, len(sel.ClusterIDs))
		for _, id := range sel.ClusterIDs {
			if _, ok := report.ClusterByID(id); !ok {
				return nil, fmt.Errorf("%s: %w", id, review.ErrClusterNotFound)
			}
			wanted[id] = true
		}
		var out []review.FindingCluster
		for _, c := range report.Clusters {
			if wanted[c.ID] {
				out = append(out, c)
			}
		}
		return out, nil
	}

	if sel.CriticalOnly {
		var out []review.FindingCluster
		for _, c := range report.Clusters {
			if c.ResolvedSeverity == review.SeverityCritical {
				out = append(out, c)
			}
		}
		return out, nil
	}

	if sel.All {
		return report.Clusters, nil
	}
	return nil, fmt.Errorf("empty approval selection: pass cluster ids, --critical-only, or --all")
}

// actionTitle uses the representative finding's description: the cluster's
// lowest member id, which is stable across replays.
func actionTitle(report *review.SynthesisReport, c review.FindingCluster) string {
	if f, ok := report.FindingByID(c.MemberIDs[0]); ok {
		return f.Description
	}
	return "finding cluster " + c.ID
}

func actionCategory(report *review.SynthesisReport, c review.FindingCluster) string {
	if f, ok := report.FindingByID(c.MemberIDs[0]); ok {
		return f.Category
	}
	return ""
}
