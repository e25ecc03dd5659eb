package review

// TaskStatus tracks one analysis task's lifecycle. Transitions only move
// forward; terminal statuses never change.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskTimedOut  TaskStatus = "timedout"
)

// AllTaskStatuses returns all valid task statuses.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{TaskPending, TaskRunning, TaskSucceeded, TaskFailed, TaskTimedOut}
}

// IsValid returns true if the status is a known task status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskRunning, TaskSucceeded, TaskFailed, TaskTimedOut:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is final.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskSucceeded, TaskFailed, TaskTimedOut:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if a transition to the target status is allowed.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	switch s {
	case TaskPending:
		// A task may time out while still queued if the global deadline hits.
		return target == TaskRunning || target == TaskTimedOut
	case TaskRunning:
		return target.IsTerminal()
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}
