package review

// ConfidenceTier expresses how much cross-lens agreement backs a cluster's
// resolved severity.
type ConfidenceTier string

const (
	TierSingleton ConfidenceTier = "singleton"
	TierDisputed  ConfidenceTier = "disputed"
	TierMajority  ConfidenceTier = "majority"
	TierUnanimous ConfidenceTier = "unanimous"
)

// IsValid returns true if the tier is one of the four fixed values.
func (t ConfidenceTier) IsValid() bool {
	switch t {
	case TierSingleton, TierDisputed, TierMajority, TierUnanimous:
		return true
	default:
		return false
	}
}

// Rank orders tiers for report ranking: unanimous > majority > disputed > singleton.
func (t ConfidenceTier) Rank() int {
	switch t {
	case TierSingleton:
		return 0
	case TierDisputed:
		return 1
	case TierMajority:
		return 2
	case TierUnanimous:
		return 3
	default:
		return -1
	}
}

// String returns the string representation of the tier.
func (t ConfidenceTier) String() string {
	return string(t)
}
