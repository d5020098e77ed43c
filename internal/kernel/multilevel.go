package kernel

import "github.com/me/kernsim/pkg/model"

// multilevel keeps foreground (round-robin) and background (FCFS) partitions
// and alternates between them every LevelWindow microseconds.
//
// When the active level has nothing to run, the other partition is borrowed
// and the level flips with a fresh window, so the borrow never counts against
// the lent level's own turn.
type multilevel struct{}

func (multilevel) discipline() model.Discipline { return model.DisciplineMultilevel }

func (multilevel) partition(k *Kernel, c model.Class) *queue {
	if c == model.ClassBackground {
		return &k.background
	}
	return &k.foreground
}

func (m multilevel) ready(k *Kernel, p *model.Process) {
	m.partition(k, p.Class).pushBack(p)
}

func (multilevel) queued(k *Kernel) int {
	return k.foreground.len() + k.background.len()
}

func (multilevel) selectNext(k *Kernel) *model.Process {
	fg, bg := &k.foreground, &k.background
	if fg.len() == 0 && bg.len() == 0 {
		return k.idle
	}

	if k.level == model.ClassForeground {
		if fg.len() > 0 {
			k.sliceRemaining = Quantum
			return fg.popFront()
		}
		k.switchLevel(model.ClassBackground, "foreground empty")
		return bg.popFront()
	}

	if bg.len() > 0 {
		return bg.popFront()
	}
	// No slice reset on this path.
	k.switchLevel(model.ClassForeground, "background empty")
	return fg.popFront()
}

func (multilevel) preemptOnArrival(*Kernel, *model.Process) bool { return false }

func (multilevel) preemptOnWake(*Kernel, *model.Process) bool { return false }

func (multilevel) pickWaiter(waiters *queue) *model.Process {
	return waiters.removeMin(byPID)
}

func (multilevel) reprioritize(*Kernel) {}

// afterExit leaves the slice alone: level timers survive exits.
func (multilevel) afterExit(*Kernel) {}

func (m multilevel) tick(k *Kernel) {
	k.levelElapsed += TickInterval

	// Within-level round-robin, foreground only.
	if k.level == model.ClassForeground {
		k.sliceRemaining -= TickInterval
		if k.sliceRemaining <= 0 {
			k.trace("time quantum expired", "pid", k.running.PID)
			k.sliceRemaining = Quantum
			k.relapse = k.prevPID == k.running.PID
			k.prevPID = k.running.PID
			if !k.running.IsIdle() {
				k.foreground.pushBack(k.running)
				k.dispatch()
			}
		}
	}

	if k.levelElapsed < LevelWindow {
		return
	}

	carry := k.sliceRemaining
	if k.relapse {
		carry = Quantum
		k.relapse = false
	}

	next := k.level.Other()
	if m.partition(k, next).len() == 0 {
		k.trace("level window elapsed, staying", "level", k.level)
		k.levelElapsed = 0
		return
	}

	if !k.running.IsIdle() {
		m.partition(k, k.level).pushFront(k.running)
	}
	k.switchLevel(next, "level window elapsed")
	k.dispatch()
	if next == model.ClassForeground {
		k.sliceRemaining = carry
	}
}
