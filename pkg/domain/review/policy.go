package review

// ClusterPolicy tunes the equivalence rule used when grouping findings.
// It is persisted on the Run record so a replayed synthesis uses the exact
// rules of the original run.
type ClusterPolicy struct {
	// CategoryCompatibility declares category pairs that may cluster
	// together even though they differ, e.g. "usability" with
	// "accessibility". The map is treated symmetrically.
	CategoryCompatibility map[string][]string `json:"category_compatibility,omitempty" yaml:"category_compatibility,omitempty"`
	// SimilarityThreshold overrides the default description similarity
	// cut-off when positive.
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold,omitempty"`
}
