package kernel

import "github.com/me/kernsim/pkg/model"

// roundRobin serves the ready queue FIFO and preempts after Quantum microseconds.
type roundRobin struct{ unified }

func (roundRobin) discipline() model.Discipline { return model.DisciplineRR }

func (roundRobin) selectNext(k *Kernel) *model.Process {
	p := k.ready.popFront()
	if p == nil {
		return k.idle
	}
	k.sliceRemaining = Quantum
	return p
}

func (roundRobin) tick(k *Kernel) {
	if k.running.IsIdle() {
		return
	}
	k.sliceRemaining -= TickInterval
	if k.sliceRemaining > 0 {
		return
	}
	k.trace("time quantum expired", "pid", k.running.PID)
	k.ready.pushBack(k.running)
	k.dispatch()
	k.sliceRemaining = Quantum
}
