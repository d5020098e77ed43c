// Package kernel implements the decision core of a simulated single-CPU kernel.
//
// A driver calls exactly one handler at a time (an arrival, a syscall or a timer
// interrupt). Each handler updates the kernel state synchronously and returns the
// PID that now occupies the CPU. A Kernel is not safe for concurrent use.
package kernel

import (
	"context"
	"log/slog"
	"sort"

	"github.com/me/kernsim/internal/logging"
	"github.com/me/kernsim/pkg/model"
)

// Scheduling constants, in simulated microseconds.
const (
	Quantum      = 40  // RR and Multilevel foreground time slice
	TickInterval = 10  // time advanced by one timer interrupt
	LevelWindow  = 200 // Multilevel level alternation window
)

// noPID never matches a real or idle PID.
const noPID model.PID = -1

// Kernel is the whole simulated scheduling state for one run.
type Kernel struct {
	policy policy
	logger *slog.Logger

	idle    *model.Process
	running *model.Process
	live    map[model.PID]*model.Process // arrived and not exited

	ready      queue // FCFS, Priority, RR
	foreground queue // Multilevel only
	background queue // Multilevel only

	sliceRemaining int
	level          model.Class
	levelElapsed   int
	relapse        bool
	prevPID        model.PID
	clock          int

	semaphores map[int]*semaphore
	mutexes    map[int]*mutex
}

// New creates a kernel running the given discipline. The idle record runs until
// the first arrival. A nil logger discards trace output.
func New(d model.Discipline, logger *slog.Logger) (*Kernel, error) {
	pol, err := newPolicy(d)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	idle := model.NewProcess(model.IdlePID)
	return &Kernel{
		policy:         pol,
		logger:         logger.With("component", "kernel", "discipline", d),
		idle:           idle,
		running:        idle,
		live:           make(map[model.PID]*model.Process),
		sliceRemaining: Quantum,
		level:          model.ClassForeground,
		prevPID:        noPID,
		semaphores:     make(map[int]*semaphore),
		mutexes:        make(map[int]*mutex),
	}, nil
}

// Discipline returns the scheduling discipline fixed at construction.
func (k *Kernel) Discipline() model.Discipline {
	return k.policy.discipline()
}

// Running returns the PID currently occupying the CPU.
func (k *Kernel) Running() model.PID {
	return k.running.PID
}

// RunningProcess returns a copy of the running record.
func (k *Kernel) RunningProcess() model.Process {
	return *k.running
}

// Clock returns the simulated time advanced so far by timer interrupts.
func (k *Kernel) Clock() int {
	return k.clock
}

// SliceRemaining returns the quantum budget left for the running record.
func (k *Kernel) SliceRemaining() int {
	return k.sliceRemaining
}

// Level returns the Multilevel partition that currently owns the CPU turn.
func (k *Kernel) Level() model.Class {
	return k.level
}

// Queued returns the number of records waiting to run.
func (k *Kernel) Queued() int {
	return k.policy.queued(k)
}

// Snapshot returns a read-only view of the kernel state.
func (k *Kernel) Snapshot() model.Snapshot {
	snap := model.Snapshot{
		Discipline:     k.Discipline(),
		Running:        k.running.PID,
		Clock:          k.clock,
		SliceRemaining: k.sliceRemaining,
		Ready:          k.ready.pids(),
		Semaphores:     make([]model.SemaphoreState, 0, len(k.semaphores)),
		Mutexes:        make([]model.MutexState, 0, len(k.mutexes)),
	}
	if k.Discipline() == model.DisciplineMultilevel {
		snap.Level = k.level
		snap.LevelElapsed = k.levelElapsed
		snap.Foreground = k.foreground.pids()
		snap.Background = k.background.pids()
	}
	for _, id := range sortedKeys(k.semaphores) {
		snap.Semaphores = append(snap.Semaphores, k.semaphores[id].state(id))
	}
	for _, id := range sortedKeys(k.mutexes) {
		snap.Mutexes = append(snap.Mutexes, k.mutexes[id].state(id))
	}
	return snap
}

// dispatch replaces the running record with the policy's choice.
func (k *Kernel) dispatch() {
	prev := k.running.PID
	k.running = k.policy.selectNext(k)
	k.trace("dispatch", "from", prev, "to", k.running.PID, "queued", k.policy.queued(k))
}

// runFromIdle dispatches when the CPU was idle and something just became ready.
// The new record starts with a fresh quantum and a fresh level turn.
func (k *Kernel) runFromIdle() {
	k.dispatch()
	k.level = k.running.Class
	k.levelElapsed = 0
	k.sliceRemaining = Quantum
}

func (k *Kernel) switchLevel(to model.Class, reason string) {
	k.trace("level switch", "from", k.level, "to", to, "reason", reason)
	k.level = to
	k.levelElapsed = 0
}

func (k *Kernel) trace(msg string, args ...any) {
	k.logger.Log(context.Background(), logging.LevelTrace, msg, append(args, "clock", k.clock)...)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	sort.Ints(keys)
	return keys
}
