// Package synthesize resolves each cluster's severity and confidence tier
// via fixed, order-independent rules and ranks clusters into a report.
package synthesize

import (
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// Synthesizer operates on already-materialized findings only. It never
// invokes an analysis capability itself.
type Synthesizer struct{}

// New creates a synthesizer.
func New() *Synthesizer {
	return &Synthesizer{}
}

// Input carries everything the synthesizer needs from the collection phase.
type Input struct {
	RunID              string
	Artifact           review.Artifact
	Clusters           []review.FindingCluster
	Findings           []review.Finding
	Tasks              []review.AnalysisTask
	UnparseableOutputs []review.QuarantinedOutput
	GeneratedAt        time.Time
}

// Synthesize resolves and ranks the clusters into the run's final report.
// The cluster ordering derives purely from the finding set: severity
// descending, tier rank descending, cluster id ascending.
func (s *Synthesizer) Synthesize(in Input) (*review.SynthesisReport, error) {
	byID := make(map[string]review.Finding, len(in.Findings))
	for _, f := range in.Findings {
		byID[f.ID] = f
	}

	totalSucceeded := 0
	var failed []review.FailedTask
	for _, task := range in.Tasks {
		switch task.Status {
		case review.TaskSucceeded:
			totalSucceeded++
		case review.TaskFailed, review.TaskTimedOut:
			failed = append(failed, review.FailedTask{
				TaskID: task.ID,
				LensID: task.LensID,
				Status: task.Status,
				Error:  task.Error,
			})
		}
	}

	sort.Slice(failed, func(i, j int) bool { return failed[i].LensID < failed[j].LensID })

	resolved := make([]review.FindingCluster, 0, len(in.Clusters))
	for _, c := range in.Clusters {
		members := make([]review.Finding, 0, len(c.MemberIDs))
		for _, id := range c.MemberIDs {
			f, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("cluster %s references unknown finding %s", c.ID, id)
			}
			members = append(members, f)
		}
		resolved = append(resolved, resolve(c, members, totalSucceeded))
	}

	sort.Slice(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.ResolvedSeverity.Rank() != b.ResolvedSeverity.Rank() {
			return a.ResolvedSeverity.Rank() > b.ResolvedSeverity.Rank()
		}
		if a.ConfidenceTier.Rank() != b.ConfidenceTier.Rank() {
			return a.ConfidenceTier.Rank() > b.ConfidenceTier.Rank()
		}
		return a.ID < b.ID
	})

	findings := make([]review.Finding, len(in.Findings))
	copy(findings, in.Findings)
	sort.Slice(findings, func(i, j int) bool { return findings[i].ID < findings[j].ID })

	report := &review.SynthesisReport{
		RunID:              in.RunID,
		Artifact:           in.Artifact,
		GeneratedAt:        in.GeneratedAt,
		Clusters:           resolved,
		Findings:           findings,
		FailedTasks:        failed,
		UnparseableOutputs: in.UnparseableOutputs,
	}
	report.Summary = summarize(report, totalSucceeded)
	return report, nil
}

// resolve applies the agreement rules in fixed order:
//  1. members from all succeeded tasks, all same severity -> unanimous
//  2. members from a strict majority of succeeded tasks -> majority
//  3. otherwise disputed, or singleton for a single member
//
// Resolved severity is always the maximum reported among members: a
// disagreement about severity must never suppress the more severe
// assessment. Minority assessments are preserved verbatim as dissent notes.
func resolve(c review.FindingCluster, members []review.Finding, totalSucceeded int) review.FindingCluster {
	severities := make([]review.Severity, 0, len(members))
	for _, m := range members {
		severities = append(severities, m.Severity)
	}
	maxSeverity := review.MaxSeverity(severities)

	sameSeverity := true
	for _, s := range severities {
		if s != severities[0] {
			sameSeverity = false
			break
		}
	}

	sources := len(c.SourceTasks)
	switch {
	case totalSucceeded > 1 && sources == totalSucceeded && sameSeverity:
		c.ConfidenceTier = review.TierUnanimous
	case sources*2 > totalSucceeded && sources > 1:
		c.ConfidenceTier = review.TierMajority
	case len(members) == 1:
		c.ConfidenceTier = review.TierSingleton
	default:
		c.ConfidenceTier = review.TierDisputed
	}

	c.ResolvedSeverity = maxSeverity
	c.DissentNotes = dissent(members, maxSeverity)
	return c
}

// dissent records every member assessment that deviates from the resolved
// severity or from the modal category, verbatim.
func dissent(members []review.Finding, resolved review.Severity) []review.DissentNote {
	counts := make(map[string]int)
	for _, m := range members {
		counts[m.Category]++
	}
	modalCategory := ""
	for cat, n := range counts {
		switch {
		case modalCategory == "", n > counts[modalCategory]:
			modalCategory = cat
		case n == counts[modalCategory] && cat < modalCategory:
			// Deterministic tie-break, independent of map iteration order.
			modalCategory = cat
		}
	}

	var notes []review.DissentNote
	for _, m := range members {
		if m.Severity == resolved && m.Category == modalCategory {
			continue
		}
		notes = append(notes, review.DissentNote{
			FindingID: m.ID,
			TaskID:    m.TaskID,
			Category:  m.Category,
			Severity:  m.Severity,
			Note:      m.Description,
		})
	}
	return notes
}

func summarize(report *review.SynthesisReport, totalSucceeded int) review.ReportSummary {
	critical := 0
	for _, c := range report.Clusters {
		if c.ResolvedSeverity == review.SeverityCritical {
			critical++
		}
	}
	return review.ReportSummary{
		TotalClusters:              len(report.Clusters),
		CriticalCount:              critical,
		SucceededTasks:             totalSucceeded,
		FailedTasks:                len(report.FailedTasks),
		RequiresImmediateAttention: critical > 0,
	}
}
