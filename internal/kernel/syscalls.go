package kernel

import (
	"github.com/me/kernsim/pkg/model"
)

// Arrive registers a new process and returns the PID now running.
// An empty class means Foreground. The CPU is taken immediately when idle,
// and under Priority when the arrival dominates the running record.
func (k *Kernel) Arrive(pid model.PID, priority int, class model.Class) (model.PID, error) {
	if pid <= model.IdlePID {
		return k.running.PID, model.InvalidArgument("process", int(pid), "pid must be positive")
	}
	if class == "" {
		class = model.ClassForeground
	}
	if !class.Valid() {
		return k.running.PID, model.InvalidArgument("process", int(pid), "unknown class "+string(class))
	}
	if _, ok := k.live[pid]; ok {
		return k.running.PID, model.AlreadyExists("process", int(pid))
	}

	k.trace("arrival", "pid", pid, "priority", priority, "class", class, "queued", k.policy.queued(k))
	p := &model.Process{PID: pid, Priority: priority, Class: class}
	k.live[pid] = p
	k.policy.ready(k, p)

	switch {
	case k.running.IsIdle():
		k.runFromIdle()
	case k.policy.preemptOnArrival(k, p):
		k.trace("arrival preempts", "pid", pid, "preempted", k.running.PID)
		k.policy.ready(k, k.running)
		k.dispatch()
		k.sliceRemaining = Quantum
	}
	return k.running.PID, nil
}

// Exit terminates the running process and dispatches its replacement.
// Mutexes owned by the exiting process stay locked.
func (k *Kernel) Exit() model.PID {
	k.trace("exit", "pid", k.running.PID)
	if !k.running.IsIdle() {
		delete(k.live, k.running.PID)
	}
	k.dispatch()
	k.policy.afterExit(k)
	return k.running.PID
}

// SetPriority changes the running process's priority. Under Priority a queued
// record that now dominates takes the CPU. The idle record's priority is fixed.
func (k *Kernel) SetPriority(priority int) model.PID {
	if k.running.IsIdle() {
		k.trace("set priority ignored on idle")
		return k.running.PID
	}
	k.trace("set priority", "pid", k.running.PID, "old", k.running.Priority, "new", priority)
	k.running.Priority = priority
	k.policy.reprioritize(k)
	return k.running.PID
}

// TimerInterrupt advances the simulated clock by TickInterval and applies
// time-slice preemption for the disciplines that have it.
func (k *Kernel) TimerInterrupt() model.PID {
	k.clock += TickInterval
	k.policy.tick(k)
	return k.running.PID
}
