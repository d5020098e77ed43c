package model

import (
	"fmt"
	"strings"
)

// Discipline is the scheduling policy of a kernel. It is fixed for the lifetime of a run.
type Discipline string

const (
	DisciplineFCFS       Discipline = "FCFS"
	DisciplinePriority   Discipline = "Priority"
	DisciplineRR         Discipline = "RR"
	DisciplineMultilevel Discipline = "Multilevel"
)

// Disciplines lists every supported discipline in declaration order.
var Disciplines = []Discipline{
	DisciplineFCFS,
	DisciplinePriority,
	DisciplineRR,
	DisciplineMultilevel,
}

// String returns the string representation of the discipline.
func (d Discipline) String() string {
	return string(d)
}

// Valid reports whether d is a known discipline.
func (d Discipline) Valid() bool {
	for _, known := range Disciplines {
		if d == known {
			return true
		}
	}
	return false
}

// IsTimeSliced returns true if timer ticks can preempt the running process.
func (d Discipline) IsTimeSliced() bool {
	switch d {
	case DisciplineRR, DisciplineMultilevel:
		return true
	}
	return false
}

// ParseDiscipline converts a case-insensitive name to a Discipline.
// "round-robin" and "mlfq" are accepted as aliases.
func ParseDiscipline(s string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fcfs", "fifo":
		return DisciplineFCFS, nil
	case "priority":
		return DisciplinePriority, nil
	case "rr", "round-robin", "roundrobin":
		return DisciplineRR, nil
	case "multilevel", "mlfq":
		return DisciplineMultilevel, nil
	}
	return "", fmt.Errorf("unknown scheduling discipline %q", s)
}
