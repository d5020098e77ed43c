package kernel

import (
	"fmt"

	"github.com/me/kernsim/pkg/model"
)

// policy holds everything that differs between scheduling disciplines.
// Exactly one implementation is chosen in New and never replaced.
type policy interface {
	discipline() model.Discipline

	// ready places a runnable record at the tail of the queue it belongs to.
	ready(k *Kernel, p *model.Process)

	// queued returns the number of records waiting to run.
	queued(k *Kernel) int

	// selectNext removes and returns the next record to run, or the idle record.
	selectNext(k *Kernel) *model.Process

	// preemptOnArrival reports whether arrival p displaces the non-idle running record.
	preemptOnArrival(k *Kernel, p *model.Process) bool

	// preemptOnWake reports whether woken waiter p displaces the non-idle running record.
	preemptOnWake(k *Kernel, p *model.Process) bool

	// pickWaiter removes and returns the waiter to unblock from a non-empty queue.
	pickWaiter(waiters *queue) *model.Process

	// reprioritize runs after the running record changed its own priority.
	reprioritize(k *Kernel)

	// afterExit runs after a replacement for an exited record was dispatched.
	afterExit(k *Kernel)

	// tick handles one timer interrupt; the clock has already advanced.
	tick(k *Kernel)
}

func newPolicy(d model.Discipline) (policy, error) {
	switch d {
	case model.DisciplineFCFS:
		return fcfs{}, nil
	case model.DisciplinePriority:
		return priority{}, nil
	case model.DisciplineRR:
		return roundRobin{}, nil
	case model.DisciplineMultilevel:
		return multilevel{}, nil
	}
	return nil, fmt.Errorf("unknown scheduling discipline %q", d)
}

// unified implements the parts shared by the disciplines that keep a single ready queue.
type unified struct{}

func (unified) ready(k *Kernel, p *model.Process) {
	k.ready.pushBack(p)
}

func (unified) queued(k *Kernel) int {
	return k.ready.len()
}

func (unified) preemptOnArrival(*Kernel, *model.Process) bool { return false }

func (unified) preemptOnWake(*Kernel, *model.Process) bool { return false }

func (unified) pickWaiter(waiters *queue) *model.Process {
	return waiters.removeMin(byPID)
}

func (unified) reprioritize(*Kernel) {}

func (unified) afterExit(k *Kernel) {
	k.sliceRemaining = Quantum
}

func (unified) tick(*Kernel) {}
