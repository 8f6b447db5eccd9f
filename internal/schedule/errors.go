package schedule

import "errors"

// Sentinel errors for the scheduling engine. Mutating operations that
// return one of these leave the graph unchanged.
var (
	ErrTaskNotFound     = errors.New("schedule: task not found")
	ErrInvalidDuration  = errors.New("schedule: duration must be non-negative")
	ErrInvalidDate      = errors.New("schedule: invalid date")
	ErrDanglingParent   = errors.New("schedule: parent task does not exist")
	ErrParentCycle      = errors.New("schedule: parent assignment would form a cycle")
	ErrDanglingLink     = errors.New("schedule: link references a task not in the graph")
	ErrUnknownKind      = errors.New("schedule: unknown task kind")
	ErrResourceMismatch = errors.New("schedule: resource id and name lists must match")
	ErrInvalidAlloc     = errors.New("schedule: allocation references a resource not assigned to the task")
	ErrBaselineSlot     = errors.New("schedule: baseline slot out of range")
	ErrDuplicateTaskID  = errors.New("schedule: duplicate task id")
	ErrMalformedInput   = errors.New("schedule: malformed document")
)
