// Package cluster groups findings from different tasks that describe the
// same underlying issue into a deterministic partition.
package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// DefaultSimilarityThreshold is the fixed cut-off for description
// similarity. Two findings below it never join a cluster directly.
const DefaultSimilarityThreshold = 0.55

// Clusterer computes a deterministic partition of findings.
type Clusterer struct {
	compatible map[[2]string]bool
	threshold  float64
}

// New creates a clusterer from the run's cluster policy.
func New(policy review.ClusterPolicy) *Clusterer {
	compatible := make(map[[2]string]bool)
	for cat, others := range policy.CategoryCompatibility {
		for _, other := range others {
			compatible[[2]string{cat, other}] = true
			compatible[[2]string{other, cat}] = true
		}
	}
	threshold := policy.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Clusterer{compatible: compatible, threshold: threshold}
}

// Cluster partitions the findings. Two findings match pairwise when their
// locators overlap, their categories are equal or declared compatible, and
// their descriptions are similar enough; union-find closes chains of such
// matches into clusters. Unmatched findings become singletons. The result is
// independent of input order: findings are canonicalized by id before any
// pairing decision, and every tie-break uses the lowest finding id.
func (c *Clusterer) Cluster(findings []review.Finding) []review.FindingCluster {
	if len(findings) == 0 {
		return nil
	}

	sorted := make([]review.Finding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	uf := newUnionFind(len(sorted))
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if c.matches(sorted[i], sorted[j]) {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]review.Finding)
	for i, f := range sorted {
		root := uf.find(i)
		groups[root] = append(groups[root], f)
	}

	clusters := make([]review.FindingCluster, 0, len(groups))
	for _, members := range groups {
		clusters = append(clusters, buildCluster(members))
	}
	// Deterministic output order, keyed by the lowest member finding id.
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].MemberIDs[0] < clusters[j].MemberIDs[0]
	})
	return clusters
}

// matches is the symmetric pairwise equivalence test.
func (c *Clusterer) matches(a, b review.Finding) bool {
	if !a.Locator.Overlaps(b.Locator) {
		return false
	}
	if a.Category != b.Category && !c.compatible[[2]string{a.Category, b.Category}] {
		return false
	}
	return DescriptionSimilarity(a.Description, b.Description) >= c.threshold
}

func buildCluster(members []review.Finding) review.FindingCluster {
	// members arrive sorted by id already; keep that order.
	ids := make([]string, 0, len(members))
	taskSet := make(map[string]bool)
	for _, m := range members {
		ids = append(ids, m.ID)
		taskSet[m.TaskID] = true
	}
	tasks := make([]string, 0, len(taskSet))
	for t := range taskSet {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)

	return review.FindingCluster{
		ID:          clusterID(ids),
		MemberIDs:   ids,
		SourceTasks: tasks,
	}
}

// clusterID derives a stable id from the sorted member finding ids, so the
// same finding set always yields the same cluster id.
func clusterID(memberIDs []string) string {
	h := sha256.New()
	for _, id := range memberIDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return "c-" + hex.EncodeToString(h.Sum(nil))[:12]
}

// DescriptionSimilarity scores two descriptions in [0, 1] using the Dice
// coefficient over lowercased word bigrams. Single-word descriptions fall
// back to unigram comparison.
func DescriptionSimilarity(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	overlap := 0
	for g := range ba {
		if bb[g] {
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ba)+len(bb))
}

func bigrams(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool)
	if len(words) == 1 {
		set[words[0]] = true
		return set
	}
	for i := 0; i+1 < len(words); i++ {
		set[words[i]+" "+words[i+1]] = true
	}
	return set
}
