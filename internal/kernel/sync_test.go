package kernel

import (
	"errors"
	"testing"

	"github.com/me/kernsim/pkg/model"
)

func TestSemaphore_FCFSWakeAppendsToReady(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)
	if err := k.SemaphoreInit(1, 0); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)

	got, err := k.SemaphoreP(1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Fatalf("after P running = %d, want 2", got)
	}

	got, err = k.SemaphoreV(1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Fatalf("after V running = %d, want 2", got)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 1)

	s, err := k.Semaphore(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Value != 0 || len(s.Waiters) != 0 {
		t.Errorf("semaphore = %+v, want value 0 and no waiters", s)
	}
}

func TestSemaphore_CountsDown(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)
	if err := k.SemaphoreInit(7, 2); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)

	for i := 0; i < 2; i++ {
		if got, _ := k.SemaphoreP(7); got != 1 {
			t.Fatalf("P #%d: running = %d, want 1", i+1, got)
		}
	}
	if got, _ := k.SemaphoreP(7); got != 2 {
		t.Fatalf("third P: running = %d, want 2", got)
	}

	s, _ := k.Semaphore(7)
	if s.Value != -1 {
		t.Errorf("value = %d, want -1", s.Value)
	}
	wantPIDs(t, "waiters", s.Waiters, 1)

	// V with a non-negative result wakes nobody.
	k.SemaphoreV(7)
	k.SemaphoreV(7)
	s, _ = k.Semaphore(7)
	if s.Value != 1 || len(s.Waiters) != 0 {
		t.Errorf("semaphore = %+v, want value 1 and no waiters", s)
	}
}

func TestSemaphore_WakesSmallestPID(t *testing.T) {
	k := newKernel(t, model.DisciplineRR)
	if err := k.SemaphoreInit(1, 0); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)
	arrive(t, k, 3, 0, model.ClassForeground)

	ticks(k, 4) // 2 runs
	ticks(k, 4) // 3 runs
	wantRunning(t, k, 3)
	if got, _ := k.SemaphoreP(1); got != 1 {
		t.Fatalf("after 3 blocks running = %d, want 1", got)
	}
	ticks(k, 4)
	wantRunning(t, k, 2)
	if got, _ := k.SemaphoreP(1); got != 1 {
		t.Fatalf("after 2 blocks running = %d, want 1", got)
	}

	s, _ := k.Semaphore(1)
	wantPIDs(t, "waiters", s.Waiters, 3, 2)

	if got, _ := k.SemaphoreV(1); got != 1 {
		t.Fatalf("after V running = %d, want 1", got)
	}
	s, _ = k.Semaphore(1)
	wantPIDs(t, "waiters", s.Waiters, 3)
	wantPIDs(t, "ready", k.Snapshot().Ready, 2)
}

func TestSemaphore_PriorityWakePreempts(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)
	if err := k.SemaphoreInit(1, 0); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 5, model.ClassForeground)
	if got, _ := k.SemaphoreP(1); got != model.IdlePID {
		t.Fatalf("after P running = %d, want idle", got)
	}
	arrive(t, k, 2, 10, model.ClassForeground)
	arrive(t, k, 3, 1, model.ClassForeground)
	wantRunning(t, k, 3)
	k.SetPriority(20)
	wantRunning(t, k, 2)

	if got, _ := k.SemaphoreV(1); got != 1 {
		t.Fatalf("after V running = %d, want 1", got)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 3, 2)
}

func TestSemaphore_WakeFromIdle(t *testing.T) {
	k := newKernel(t, model.DisciplineRR)
	if err := k.SemaphoreInit(1, 0); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	ticks(k, 2)
	k.SemaphoreP(1)
	wantRunning(t, k, model.IdlePID)

	// An interrupt-context V with nothing running dispatches the woken process.
	if got, _ := k.SemaphoreV(1); got != 1 {
		t.Fatalf("running = %d, want 1", got)
	}
	if k.SliceRemaining() != Quantum {
		t.Errorf("slice = %d, want %d", k.SliceRemaining(), Quantum)
	}
}

func TestMutex_PriorityHandoff(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)
	if err := k.MutexInit(1); err != nil {
		t.Fatal(err)
	}

	arrive(t, k, 1, 20, model.ClassForeground) // A
	if got, _ := k.MutexLock(1); got != 1 {
		t.Fatalf("A lock: running = %d, want 1", got)
	}
	arrive(t, k, 3, 30, model.ClassForeground)
	if got := arrive(t, k, 2, 5, model.ClassForeground); got != 2 {
		t.Fatalf("B arrival: running = %d, want 2", got)
	}
	if got, _ := k.MutexLock(1); got != 1 {
		t.Fatalf("B blocks: running = %d, want 1", got)
	}

	if got, _ := k.MutexUnlock(1); got != 2 {
		t.Fatalf("A unlock: running = %d, want 2", got)
	}
	m, err := k.Mutex(1)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Locked || m.Owner != 2 || len(m.Waiters) != 0 {
		t.Errorf("mutex = %+v, want locked by 2 with no waiters", m)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 3, 1)
}

func TestMutex_FCFSHandoffKeepsRunning(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)
	if err := k.MutexInit(4); err != nil {
		t.Fatal(err)
	}
	if err := k.SemaphoreInit(9, 0); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)

	k.MutexLock(4)
	if got, _ := k.SemaphoreP(9); got != 2 {
		t.Fatalf("running = %d, want 2", got)
	}
	if got, _ := k.MutexLock(4); got != model.IdlePID {
		t.Fatalf("2 blocks on mutex: running = %d, want idle", got)
	}
	if got, _ := k.SemaphoreV(9); got != 1 {
		t.Fatalf("V from idle: running = %d, want 1", got)
	}
	if got, _ := k.MutexUnlock(4); got != 1 {
		t.Fatalf("unlock: running = %d, want 1", got)
	}
	m, _ := k.Mutex(4)
	if m.Owner != 2 || !m.Locked {
		t.Errorf("mutex = %+v, want owned by 2", m)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 2)
}

func TestMutex_UnlockByNonOwnerIgnored(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)
	if err := k.MutexInit(1); err != nil {
		t.Fatal(err)
	}
	if err := k.SemaphoreInit(1, 0); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)

	k.MutexLock(1)
	k.SemaphoreP(1)
	wantRunning(t, k, 2)

	if got, err := k.MutexUnlock(1); err != nil || got != 2 {
		t.Fatalf("unlock by non-owner = (%d, %v), want (2, nil)", got, err)
	}
	m, _ := k.Mutex(1)
	if !m.Locked || m.Owner != 1 {
		t.Errorf("mutex = %+v, want still owned by 1", m)
	}

	// Unlocking an unlocked mutex is ignored as well.
	if err := k.MutexInit(2); err != nil {
		t.Fatal(err)
	}
	if _, err := k.MutexUnlock(2); err != nil {
		t.Fatalf("unlock of unlocked mutex: %v", err)
	}
}

func TestMutex_ExitKeepsLock(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)
	if err := k.MutexInit(1); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)
	k.MutexLock(1)
	k.Exit()

	if got, _ := k.MutexLock(1); got != model.IdlePID {
		t.Fatalf("lock held by exited process: running = %d, want idle", got)
	}
	m, _ := k.Mutex(1)
	if m.Owner != 1 {
		t.Errorf("owner = %d, want 1", m.Owner)
	}
}

func TestMutex_OwnerRelockRejected(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)
	if err := k.MutexInit(1); err != nil {
		t.Fatal(err)
	}
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)

	if _, err := k.MutexLock(1); err != nil {
		t.Fatal(err)
	}
	got, err := k.MutexLock(1)
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("relock error = %v, want ErrInvalidArgument", err)
	}
	if got != 1 {
		t.Errorf("running after relock = %d, want 1", got)
	}
	m, _ := k.Mutex(1)
	if !m.Locked || m.Owner != 1 || len(m.Waiters) != 0 {
		t.Errorf("mutex = %+v, want owned by 1 with no waiters", m)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 2)

	if got, err := k.MutexUnlock(1); err != nil || got != 1 {
		t.Fatalf("unlock = (%d, %v), want (1, nil)", got, err)
	}
	if m, _ := k.Mutex(1); m.Locked {
		t.Errorf("mutex still locked after owner unlock: %+v", m)
	}
}

func TestSync_Errors(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)

	calls := map[string]func() error{
		"semaphore_p":  func() error { _, err := k.SemaphoreP(99); return err },
		"semaphore_v":  func() error { _, err := k.SemaphoreV(99); return err },
		"mutex_lock":   func() error { _, err := k.MutexLock(99); return err },
		"mutex_unlock": func() error { _, err := k.MutexUnlock(99); return err },
	}
	for name, call := range calls {
		err := call()
		if !errors.Is(err, model.ErrUnknownResource) {
			t.Errorf("%s: error = %v, want ErrUnknownResource", name, err)
		}
	}
	if _, err := k.Semaphore(99); !errors.Is(err, model.ErrUnknownResource) {
		t.Errorf("Semaphore(99) error = %v", err)
	}
	if _, err := k.Mutex(99); !errors.Is(err, model.ErrUnknownResource) {
		t.Errorf("Mutex(99) error = %v", err)
	}

	if err := k.SemaphoreInit(1, -1); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("negative init error = %v, want ErrInvalidArgument", err)
	}
	if err := k.SemaphoreInit(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := k.SemaphoreInit(1, 1); !errors.Is(err, model.ErrAlreadyExists) {
		t.Errorf("duplicate semaphore init error = %v, want ErrAlreadyExists", err)
	}
	if err := k.MutexInit(1); err != nil {
		t.Fatal(err)
	}
	if err := k.MutexInit(1); !errors.Is(err, model.ErrAlreadyExists) {
		t.Errorf("duplicate mutex init error = %v, want ErrAlreadyExists", err)
	}

	if _, err := k.SemaphoreP(1); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("P from idle error = %v, want ErrInvalidArgument", err)
	}
	if _, err := k.MutexLock(1); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("lock from idle error = %v, want ErrInvalidArgument", err)
	}
	if s, _ := k.Semaphore(1); s.Value != 1 {
		t.Errorf("rejected P changed value to %d", s.Value)
	}
}
