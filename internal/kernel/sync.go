package kernel

import (
	"github.com/me/kernsim/pkg/model"
)

// semaphore is a counting semaphore of the simulated workload.
// A negative value is the number of blocked waiters.
type semaphore struct {
	value   int
	waiters queue
}

func (s *semaphore) state(id int) model.SemaphoreState {
	return model.SemaphoreState{ID: id, Value: s.value, Waiters: s.waiters.pids()}
}

// mutex is a workload mutex. While locked, owner is set and never queued.
type mutex struct {
	locked  bool
	owner   model.PID
	waiters queue
}

func (m *mutex) state(id int) model.MutexState {
	return model.MutexState{ID: id, Locked: m.locked, Owner: m.owner, Waiters: m.waiters.pids()}
}

func (k *Kernel) lookupSemaphore(id int) (*semaphore, error) {
	s, ok := k.semaphores[id]
	if !ok {
		return nil, model.UnknownResource("semaphore", id)
	}
	return s, nil
}

func (k *Kernel) lookupMutex(id int) (*mutex, error) {
	m, ok := k.mutexes[id]
	if !ok {
		return nil, model.UnknownResource("mutex", id)
	}
	return m, nil
}

// Semaphore returns the state of semaphore id.
func (k *Kernel) Semaphore(id int) (model.SemaphoreState, error) {
	s, err := k.lookupSemaphore(id)
	if err != nil {
		return model.SemaphoreState{}, err
	}
	return s.state(id), nil
}

// Mutex returns the state of mutex id.
func (k *Kernel) Mutex(id int) (model.MutexState, error) {
	m, err := k.lookupMutex(id)
	if err != nil {
		return model.MutexState{}, err
	}
	return m.state(id), nil
}

// SemaphoreInit creates semaphore id with a non-negative initial value.
func (k *Kernel) SemaphoreInit(id, value int) error {
	if _, ok := k.semaphores[id]; ok {
		return model.AlreadyExists("semaphore", id)
	}
	if value < 0 {
		return model.InvalidArgument("semaphore", id, "initial value must not be negative")
	}
	k.semaphores[id] = &semaphore{value: value}
	k.trace("semaphore init", "id", id, "value", value)
	return nil
}

// SemaphoreP decrements semaphore id. A negative result blocks the running
// process and dispatches a replacement.
func (k *Kernel) SemaphoreP(id int) (model.PID, error) {
	s, err := k.lookupSemaphore(id)
	if err != nil {
		return k.running.PID, err
	}
	if k.running.IsIdle() {
		return k.running.PID, model.InvalidArgument("semaphore", id, "idle record cannot block")
	}
	s.value--
	if s.value < 0 {
		k.trace("semaphore block", "id", id, "pid", k.running.PID, "value", s.value)
		s.waiters.pushBack(k.running)
		k.dispatch()
	}
	return k.running.PID, nil
}

// SemaphoreV increments semaphore id and wakes one waiter if any are blocked.
func (k *Kernel) SemaphoreV(id int) (model.PID, error) {
	s, err := k.lookupSemaphore(id)
	if err != nil {
		return k.running.PID, err
	}
	s.value++
	if s.value <= 0 && s.waiters.len() > 0 {
		w := k.policy.pickWaiter(&s.waiters)
		k.trace("semaphore wake", "id", id, "pid", w.PID, "value", s.value)
		k.wake(w)
	}
	return k.running.PID, nil
}

// MutexInit creates mutex id, unlocked.
func (k *Kernel) MutexInit(id int) error {
	if _, ok := k.mutexes[id]; ok {
		return model.AlreadyExists("mutex", id)
	}
	k.mutexes[id] = &mutex{owner: model.IdlePID}
	k.trace("mutex init", "id", id)
	return nil
}

// MutexLock acquires mutex id for the running process, or blocks it.
func (k *Kernel) MutexLock(id int) (model.PID, error) {
	m, err := k.lookupMutex(id)
	if err != nil {
		return k.running.PID, err
	}
	if k.running.IsIdle() {
		return k.running.PID, model.InvalidArgument("mutex", id, "idle record cannot block")
	}
	if !m.locked {
		m.locked = true
		m.owner = k.running.PID
		k.trace("mutex acquired", "id", id, "pid", m.owner)
		return k.running.PID, nil
	}
	if m.owner == k.running.PID {
		return k.running.PID, model.InvalidArgument("mutex", id, "already held by the running process")
	}
	k.trace("mutex block", "id", id, "pid", k.running.PID, "owner", m.owner)
	m.waiters.pushBack(k.running)
	k.dispatch()
	return k.running.PID, nil
}

// MutexUnlock releases mutex id. A call from anyone but the owner is ignored.
// Ownership passes directly to the chosen waiter, if any.
func (k *Kernel) MutexUnlock(id int) (model.PID, error) {
	m, err := k.lookupMutex(id)
	if err != nil {
		return k.running.PID, err
	}
	if !m.locked || m.owner != k.running.PID {
		k.trace("mutex unlock ignored", "id", id, "pid", k.running.PID, "owner", m.owner)
		return k.running.PID, nil
	}
	m.locked = false
	m.owner = model.IdlePID
	if m.waiters.len() > 0 {
		w := k.policy.pickWaiter(&m.waiters)
		m.locked = true
		m.owner = w.PID
		k.trace("mutex handoff", "id", id, "pid", w.PID)
		k.wake(w)
	}
	return k.running.PID, nil
}

// wake readies an unblocked record, preempting the running one when the
// policy says so.
func (k *Kernel) wake(w *model.Process) {
	switch {
	case k.running.IsIdle():
		k.policy.ready(k, w)
		k.runFromIdle()
	case k.policy.preemptOnWake(k, w):
		k.trace("wake preempts", "pid", w.PID, "preempted", k.running.PID)
		k.policy.ready(k, k.running)
		k.running = w
	default:
		k.policy.ready(k, w)
	}
}
