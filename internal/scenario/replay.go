package scenario

import (
	"fmt"
	"log/slog"

	"github.com/me/kernsim/internal/kernel"
	"github.com/me/kernsim/pkg/model"
)

// Mismatch records a step whose expected PID differed from the one running.
type Mismatch struct {
	Step  int       `json:"step"`
	Seq   int       `json:"seq"`
	Event string    `json:"event"`
	Want  model.PID `json:"want"`
	Got   model.PID `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %d (%s): running %d, expected %d", m.Step, m.Event, m.Got, m.Want)
}

// Result is the outcome of a replay.
type Result struct {
	Scenario    string             `json:"scenario"`
	Description string             `json:"description,omitempty"`
	Discipline  model.Discipline   `json:"discipline"`
	Trace       []model.TraceEntry `json:"trace"`
	Mismatches  []Mismatch         `json:"mismatches,omitempty"`
	Final       model.Snapshot     `json:"final"`
}

// OK reports whether every expectation held.
func (r *Result) OK() bool {
	return len(r.Mismatches) == 0
}

// Run converts the result into a journal record. ID and CreatedAt are left
// for the caller.
func (r *Result) Run() *model.Run {
	return &model.Run{
		Name:        r.Scenario,
		Description: r.Description,
		Discipline:  r.Discipline,
		EventCount:  len(r.Trace),
		FinalPID:    r.Final.Running,
		Clock:       r.Final.Clock,
		Trace:       r.Trace,
	}
}

// Replay runs the scenario on a fresh kernel. It stops at the first kernel
// error and returns the trace up to and including the failing event.
func Replay(sc *Scenario, logger *slog.Logger) (*Result, error) {
	k, err := kernel.New(sc.Discipline, logger)
	if err != nil {
		return nil, err
	}
	return Drive(k, sc)
}

// Drive feeds the scenario's steps into an existing kernel.
func Drive(k *kernel.Kernel, sc *Scenario) (*Result, error) {
	res := &Result{
		Scenario:    sc.Name,
		Description: sc.Description,
		Discipline:  k.Discipline(),
		Trace:       make([]model.TraceEntry, 0, sc.EventCount()),
	}

	for i, st := range sc.Events {
		for n := 0; n < st.Times(); n++ {
			running, err := k.Apply(st.Event)
			entry := model.TraceEntry{
				Seq:     len(res.Trace),
				Time:    k.Clock(),
				Event:   st.Event,
				Running: running,
			}
			if err != nil {
				entry.Error = err.Error()
				res.Trace = append(res.Trace, entry)
				res.Final = k.Snapshot()
				return res, fmt.Errorf("step %d (%s): %w", i, st.Event, err)
			}
			res.Trace = append(res.Trace, entry)
		}

		if st.Expect != nil && k.Running() != *st.Expect {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Step:  i,
				Seq:   len(res.Trace) - 1,
				Event: st.Event.String(),
				Want:  *st.Expect,
				Got:   k.Running(),
			})
		}
	}

	res.Final = k.Snapshot()
	return res, nil
}
