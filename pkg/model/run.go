package model

import "time"

// TraceEntry records one applied event and the process that ran afterwards.
type TraceEntry struct {
	Seq     int    `json:"seq"`
	Time    int    `json:"time"` // simulated clock after the event, in microseconds
	Event   Event  `json:"event"`
	Running PID    `json:"running"`
	Error   string `json:"error,omitempty"`
}

// Run is a journaled scenario replay.
type Run struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Discipline  Discipline   `json:"discipline"`
	EventCount  int          `json:"event_count"`
	FinalPID    PID          `json:"final_pid"`
	Clock       int          `json:"clock"`
	CreatedAt   time.Time    `json:"created_at"`
	Trace       []TraceEntry `json:"trace,omitempty"`
}

// SemaphoreState is a read-only view of a semaphore registry entry.
type SemaphoreState struct {
	ID      int   `json:"id"`
	Value   int   `json:"value"`
	Waiters []PID `json:"waiters"`
}

// MutexState is a read-only view of a mutex registry entry.
type MutexState struct {
	ID      int   `json:"id"`
	Locked  bool  `json:"locked"`
	Owner   PID   `json:"owner"` // IdlePID when unlocked
	Waiters []PID `json:"waiters"`
}

// Snapshot is a read-only view of the whole kernel state.
type Snapshot struct {
	Discipline     Discipline       `json:"discipline"`
	Running        PID              `json:"running"`
	Clock          int              `json:"clock"`
	SliceRemaining int              `json:"slice_remaining"`
	Level          Class            `json:"level,omitempty"`
	LevelElapsed   int              `json:"level_elapsed,omitempty"`
	Ready          []PID            `json:"ready"`
	Foreground     []PID            `json:"foreground,omitempty"`
	Background     []PID            `json:"background,omitempty"`
	Semaphores     []SemaphoreState `json:"semaphores"`
	Mutexes        []MutexState     `json:"mutexes"`
}
