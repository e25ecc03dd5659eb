package review_test

import (
	"testing"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

func TestSeverityOrder(t *testing.T) {
	all := review.AllSeverities()
	for i := 1; i < len(all); i++ {
		if all[i-1].Rank() >= all[i].Rank() {
			t.Errorf("expected %s < %s", all[i-1], all[i])
		}
	}
}

func TestParseSeverity(t *testing.T) {
	s, err := review.ParseSeverity("major")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if s != review.SeverityMajor {
		t.Errorf("expected major, got %s", s)
	}

	if _, err := review.ParseSeverity("catastrophic"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if _, err := review.ParseSeverity(""); err == nil {
		t.Error("expected error for empty severity")
	}
}

func TestMaxSeverity(t *testing.T) {
	max := review.MaxSeverity([]review.Severity{
		review.SeverityMinor,
		review.SeverityCritical,
		review.SeverityMajor,
	})
	if max != review.SeverityCritical {
		t.Errorf("expected critical, got %s", max)
	}

	if got := review.MaxSeverity(nil); got != review.SeverityInfo {
		t.Errorf("expected info for empty input, got %s", got)
	}
}

func TestTierRank(t *testing.T) {
	tiers := []review.ConfidenceTier{
		review.TierSingleton,
		review.TierDisputed,
		review.TierMajority,
		review.TierUnanimous,
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i-1].Rank() >= tiers[i].Rank() {
			t.Errorf("expected %s < %s", tiers[i-1], tiers[i])
		}
	}
}
