package kernel

import "github.com/me/kernsim/pkg/model"

// priority always runs the ready record with the smallest (priority, pid) pair.
// Arrivals, wake-ups and priority changes preempt whenever they dominate.
type priority struct{ unified }

func (priority) discipline() model.Discipline { return model.DisciplinePriority }

func (priority) selectNext(k *Kernel) *model.Process {
	if p := k.ready.removeMin(byDominance); p != nil {
		return p
	}
	return k.idle
}

func (priority) preemptOnArrival(k *Kernel, p *model.Process) bool {
	return p.Dominates(k.running)
}

func (priority) preemptOnWake(k *Kernel, p *model.Process) bool {
	return p.Dominates(k.running)
}

func (priority) pickWaiter(waiters *queue) *model.Process {
	return waiters.removeMin(byDominance)
}

func (priority) reprioritize(k *Kernel) {
	best := k.ready.min(byDominance)
	if best == nil || !best.Dominates(k.running) {
		return
	}
	k.ready.remove(best)
	k.ready.pushBack(k.running)
	k.trace("priority preemption", "from", k.running.PID, "to", best.PID)
	k.running = best
}
