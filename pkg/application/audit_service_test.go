package application_test

import (
	"testing"

	"github.com/felixgeelhaar/revu/pkg/application"
)

func TestAuditLogBuildsHashChain(t *testing.T) {
	repo := newMemoryRepo()
	svc := application.NewAuditService(repo)

	if err := svc.Log("run.created", "engine", map[string]interface{}{"run_id": "run-1"}); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if err := svc.Log("run.reported", "engine", map[string]interface{}{"run_id": "run-1"}); err != nil {
		t.Fatalf("log failed: %v", err)
	}

	events, err := svc.GetTimeline()
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].PrevHash != "" {
		t.Error("first event must anchor the chain with an empty prev hash")
	}
	if events[1].PrevHash != events[0].Hash {
		t.Error("second event must link to the first")
	}
}

func TestVerifyIntegrityCleanChain(t *testing.T) {
	repo := newMemoryRepo()
	svc := application.NewAuditService(repo)

	for _, action := range []string{"run.created", "run.transition", "run.reported"} {
		if err := svc.Log(action, "engine", nil); err != nil {
			t.Fatal(err)
		}
	}

	violations, err := svc.VerifyIntegrity()
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("clean chain should verify, got %v", violations)
	}
}

func TestVerifyIntegrityDetectsTampering(t *testing.T) {
	repo := newMemoryRepo()
	svc := application.NewAuditService(repo)

	for _, action := range []string{"run.created", "cluster.approved"} {
		if err := svc.Log(action, "human", nil); err != nil {
			t.Fatal(err)
		}
	}

	// Rewrite history behind the service's back.
	repo.events[0].Action = "run.deleted"

	violations, err := svc.VerifyIntegrity()
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if len(violations) == 0 {
		t.Error("tampered event should produce a violation")
	}
}
