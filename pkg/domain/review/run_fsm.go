package review

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. Values are kept in sync with the
// RunState constants in run.go.
const (
	StateCreated      = "created"
	StateDispatching  = "dispatching"
	StateCollecting   = "collecting"
	StateSynthesizing = "synthesizing"
	StateReported     = "reported"
	StateFailed       = "failed"
)

func init() {
	stateMap := map[string]RunState{
		StateCreated:      RunCreated,
		StateDispatching:  RunDispatching,
		StateCollecting:   RunCollecting,
		StateSynthesizing: RunSynthesizing,
		StateReported:     RunReported,
		StateFailed:       RunFailed,
	}
	for fsmState, runState := range stateMap {
		if fsmState != string(runState) {
			panic(fmt.Sprintf("FSM state %q does not match RunState %q - constants are out of sync", fsmState, runState))
		}
	}
}

// RunContext carries state data for the run machine.
type RunContext struct {
	RunID string
}

// RunStateMachine enforces the run lifecycle:
// created -> dispatching -> collecting -> synthesizing -> reported,
// with failure reachable from dispatching and collecting.
type RunStateMachine struct {
	interpreter *statekit.Interpreter[RunContext]
}

// NewRunStateMachine builds the machine starting at initialState.
func NewRunStateMachine(initialState string, runID string) (*RunStateMachine, error) {
	builder := statekit.NewMachine[RunContext]("run-machine").
		WithInitial(statekit.StateID(initialState)).
		WithContext(RunContext{RunID: runID})

	builder.State(StateCreated).
		On("dispatch").Target(StateDispatching).
		Done()

	builder.State(StateDispatching).
		On("collect").Target(StateCollecting).
		On("fail").Target(StateFailed).
		Done()

	builder.State(StateCollecting).
		On("synthesize").Target(StateSynthesizing).
		On("fail").Target(StateFailed).
		Done()

	builder.State(StateSynthesizing).
		On("report").Target(StateReported).
		Done()

	// Reported is stable and terminal; approvals do not consume it.
	builder.State(StateReported).
		Done()

	builder.State(StateFailed).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &RunStateMachine{interpreter: interpreter}, nil
}

// Transition attempts to move the run through the given event.
func (sm *RunStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before != after {
		return nil
	}
	return fmt.Errorf("the action '%s' is not allowed while the run is in the '%s' state", event, before)
}

// Current returns the current state name.
func (sm *RunStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// CurrentState returns the current state as a RunState value object.
func (sm *RunStateMachine) CurrentState() RunState {
	return RunState(sm.Current())
}

// IsTerminal returns true if the run reached reported or failed.
func (sm *RunStateMachine) IsTerminal() bool {
	return sm.CurrentState().IsTerminal()
}
