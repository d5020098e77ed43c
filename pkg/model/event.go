package model

import "fmt"

// EventKind names one of the calls the driver can issue against a kernel.
type EventKind string

const (
	EventArrival       EventKind = "arrival"
	EventExit          EventKind = "exit"
	EventSetPriority   EventKind = "set_priority"
	EventSemaphoreInit EventKind = "semaphore_init"
	EventSemaphoreP    EventKind = "semaphore_p"
	EventSemaphoreV    EventKind = "semaphore_v"
	EventMutexInit     EventKind = "mutex_init"
	EventMutexLock     EventKind = "mutex_lock"
	EventMutexUnlock   EventKind = "mutex_unlock"
	EventTimer         EventKind = "timer"
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	return string(k)
}

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventArrival, EventExit, EventSetPriority,
		EventSemaphoreInit, EventSemaphoreP, EventSemaphoreV,
		EventMutexInit, EventMutexLock, EventMutexUnlock,
		EventTimer:
		return true
	}
	return false
}

// UsesResource returns true if the event addresses a semaphore or mutex id.
func (k EventKind) UsesResource() bool {
	switch k {
	case EventSemaphoreInit, EventSemaphoreP, EventSemaphoreV,
		EventMutexInit, EventMutexLock, EventMutexUnlock:
		return true
	}
	return false
}

// Event is a single driver call. Only the fields relevant to Kind are read.
type Event struct {
	Kind     EventKind `json:"kind" yaml:"kind"`
	PID      PID       `json:"pid,omitempty" yaml:"pid,omitempty"`           // arrival
	Priority *int      `json:"priority,omitempty" yaml:"priority,omitempty"` // arrival, set_priority
	Class    Class     `json:"class,omitempty" yaml:"class,omitempty"`       // arrival
	Resource int       `json:"resource,omitempty" yaml:"resource,omitempty"` // semaphore/mutex id
	Value    int       `json:"value,omitempty" yaml:"value,omitempty"`       // semaphore_init
}

// PriorityOrDefault returns the event priority, or DefaultPriority when unset.
func (e Event) PriorityOrDefault() int {
	if e.Priority == nil {
		return DefaultPriority
	}
	return *e.Priority
}

// Validate checks that the fields required by Kind are present.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	switch e.Kind {
	case EventArrival:
		if e.PID <= IdlePID {
			return fmt.Errorf("arrival: pid must be positive, got %d", e.PID)
		}
		if e.Class != "" && !e.Class.Valid() {
			return fmt.Errorf("arrival: unknown class %q", e.Class)
		}
	case EventSetPriority:
		if e.Priority == nil {
			return fmt.Errorf("set_priority: priority is required")
		}
	}
	return nil
}

// String renders the event compactly for logs and trace tables.
func (e Event) String() string {
	switch e.Kind {
	case EventArrival:
		class := e.Class
		if class == "" {
			class = ClassForeground
		}
		return fmt.Sprintf("arrival pid=%d pr=%d %s", e.PID, e.PriorityOrDefault(), class)
	case EventSetPriority:
		return fmt.Sprintf("set_priority pr=%d", e.PriorityOrDefault())
	case EventSemaphoreInit:
		return fmt.Sprintf("semaphore_init id=%d value=%d", e.Resource, e.Value)
	}
	if e.Kind.UsesResource() {
		return fmt.Sprintf("%s id=%d", e.Kind, e.Resource)
	}
	return string(e.Kind)
}
