package review_test

import (
	"testing"

	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

func TestRunStateMachine(t *testing.T) {
	fsm, err := review.NewRunStateMachine(review.StateCreated, "r1")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if fsm.Current() != review.StateCreated {
		t.Errorf("expected created, got %s", fsm.Current())
	}

	for _, step := range []struct {
		event string
		want  string
	}{
		{"dispatch", review.StateDispatching},
		{"collect", review.StateCollecting},
		{"synthesize", review.StateSynthesizing},
		{"report", review.StateReported},
	} {
		if err := fsm.Transition(step.event); err != nil {
			t.Fatalf("%s failed: %v", step.event, err)
		}
		if fsm.Current() != step.want {
			t.Errorf("after %s expected %s, got %s", step.event, step.want, fsm.Current())
		}
	}

	if !fsm.IsTerminal() {
		t.Error("reported should be terminal")
	}

	// Reported is stable: nothing moves it.
	if err := fsm.Transition("dispatch"); err == nil {
		t.Error("expected error transitioning out of reported")
	}
}

func TestRunStateMachineFailurePaths(t *testing.T) {
	fsm, err := review.NewRunStateMachine(review.StateCreated, "r2")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Cannot skip straight to synthesis.
	if err := fsm.Transition("synthesize"); err == nil {
		t.Error("expected error skipping to synthesize from created")
	}

	if err := fsm.Transition("dispatch"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := fsm.Transition("fail"); err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if fsm.CurrentState() != review.RunFailed {
		t.Errorf("expected failed, got %s", fsm.Current())
	}
	if !fsm.IsTerminal() {
		t.Error("failed should be terminal")
	}
}
