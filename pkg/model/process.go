package model

import "fmt"

// PID identifies a simulated process. PID 0 is reserved for the idle record.
type PID int

// IdlePID is the identifier of the idle record.
const IdlePID PID = 0

// DefaultPriority is assigned to arrivals that do not specify one.
const DefaultPriority = 32

// Class partitions processes for the Multilevel discipline.
type Class string

const (
	ClassForeground Class = "Foreground"
	ClassBackground Class = "Background"
)

// String returns the string representation of the class.
func (c Class) String() string {
	return string(c)
}

// Valid reports whether c is one of the two known classes.
func (c Class) Valid() bool {
	switch c {
	case ClassForeground, ClassBackground:
		return true
	}
	return false
}

// Other returns the opposite class.
func (c Class) Other() Class {
	if c == ClassBackground {
		return ClassForeground
	}
	return ClassBackground
}

// ParseClass converts a string to a Class. The empty string yields ClassForeground.
// Accepts the canonical names, their lowercase forms and the "fg"/"bg" shorthands.
func ParseClass(s string) (Class, error) {
	switch s {
	case "", "Foreground", "foreground", "fg":
		return ClassForeground, nil
	case "Background", "background", "bg":
		return ClassBackground, nil
	}
	return "", fmt.Errorf("unknown process class %q", s)
}

// Process is the process control block of the simulation.
// Class is fixed at arrival; Priority may change through the set-priority syscall.
type Process struct {
	PID      PID   `json:"pid" yaml:"pid"`
	Priority int   `json:"priority" yaml:"priority"`
	Class    Class `json:"class" yaml:"class"`
}

// NewProcess returns a process with the default priority and class.
func NewProcess(pid PID) *Process {
	return &Process{PID: pid, Priority: DefaultPriority, Class: ClassForeground}
}

// IsIdle reports whether p is the idle record.
func (p *Process) IsIdle() bool {
	return p.PID == IdlePID
}

// Dominates reports whether p should run ahead of q: strictly smaller priority,
// or equal priority and smaller PID.
func (p *Process) Dominates(q *Process) bool {
	if p.Priority != q.Priority {
		return p.Priority < q.Priority
	}
	return p.PID < q.PID
}
