package kernel

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/me/kernsim/internal/logging"
	"github.com/me/kernsim/pkg/model"
)

func newKernel(t *testing.T, d model.Discipline) *Kernel {
	t.Helper()
	k, err := New(d, logging.Discard())
	if err != nil {
		t.Fatalf("New(%s): %v", d, err)
	}
	return k
}

func arrive(t *testing.T, k *Kernel, pid model.PID, priority int, class model.Class) model.PID {
	t.Helper()
	got, err := k.Arrive(pid, priority, class)
	if err != nil {
		t.Fatalf("Arrive(%d): %v", pid, err)
	}
	return got
}

func ticks(k *Kernel, n int) model.PID {
	var pid model.PID
	for i := 0; i < n; i++ {
		pid = k.TimerInterrupt()
	}
	return pid
}

func wantRunning(t *testing.T, k *Kernel, want model.PID) {
	t.Helper()
	if got := k.Running(); got != want {
		t.Fatalf("running = %d, want %d (snapshot %+v)", got, want, k.Snapshot())
	}
}

func wantPIDs(t *testing.T, what string, got []model.PID, want ...model.PID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, got, want)
		}
	}
}

func TestNew_UnknownDiscipline(t *testing.T) {
	if _, err := New("Lottery", nil); err == nil {
		t.Fatal("New(Lottery) succeeded, want error")
	}
}

func TestNew_StartsIdle(t *testing.T) {
	for _, d := range model.Disciplines {
		k := newKernel(t, d)
		if k.Running() != model.IdlePID {
			t.Errorf("%s: running = %d, want idle", d, k.Running())
		}
		if k.Discipline() != d {
			t.Errorf("Discipline() = %q, want %q", k.Discipline(), d)
		}
		if k.SliceRemaining() != Quantum {
			t.Errorf("%s: slice = %d, want %d", d, k.SliceRemaining(), Quantum)
		}
	}
}

func TestArrive_Validation(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)

	if _, err := k.Arrive(0, 1, model.ClassForeground); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Arrive(0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := k.Arrive(-3, 1, model.ClassForeground); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Arrive(-3) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := k.Arrive(1, 1, "Realtime"); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Arrive(class Realtime) error = %v, want ErrInvalidArgument", err)
	}
	arrive(t, k, 1, 1, "")
	if _, err := k.Arrive(1, 1, model.ClassForeground); !errors.Is(err, model.ErrAlreadyExists) {
		t.Errorf("duplicate Arrive(1) error = %v, want ErrAlreadyExists", err)
	}
	if got := k.RunningProcess().Class; got != model.ClassForeground {
		t.Errorf("default class = %q, want Foreground", got)
	}
}

func TestFCFS_ArrivalOrder(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)

	arrive(t, k, 1, 50, model.ClassForeground)
	arrive(t, k, 2, 1, model.ClassForeground)
	arrive(t, k, 3, 10, model.ClassForeground)
	wantRunning(t, k, 1)

	// Timer ticks never preempt under FCFS.
	if got := ticks(k, 20); got != 1 {
		t.Fatalf("after ticks running = %d, want 1", got)
	}

	for _, want := range []model.PID{2, 3, model.IdlePID, model.IdlePID} {
		if got := k.Exit(); got != want {
			t.Fatalf("Exit() = %d, want %d", got, want)
		}
	}
}

func TestPriority_ArrivalPreempts(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)

	if got := arrive(t, k, 1, 10, model.ClassForeground); got != 1 {
		t.Fatalf("after first arrival running = %d, want 1", got)
	}
	if got := arrive(t, k, 2, 5, model.ClassForeground); got != 2 {
		t.Fatalf("after second arrival running = %d, want 2", got)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 1)
}

func TestPriority_TieBreakBySmallerPID(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)

	arrive(t, k, 5, 7, model.ClassForeground)
	if got := arrive(t, k, 6, 7, model.ClassForeground); got != 5 {
		t.Fatalf("equal priority, larger pid: running = %d, want 5", got)
	}
	if got := arrive(t, k, 4, 7, model.ClassForeground); got != 4 {
		t.Fatalf("equal priority, smaller pid: running = %d, want 4", got)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 6, 5)
}

func TestPriority_DispatchSelectsMinimum(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)

	arrive(t, k, 1, 10, model.ClassForeground)
	arrive(t, k, 5, 3, model.ClassForeground)
	arrive(t, k, 4, 3, model.ClassForeground)
	arrive(t, k, 2, 8, model.ClassForeground)
	wantRunning(t, k, 4)

	for _, want := range []model.PID{5, 2, 1, model.IdlePID} {
		if got := k.Exit(); got != want {
			t.Fatalf("Exit() = %d, want %d", got, want)
		}
	}
}

func TestPriority_TimerIsNoop(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)
	arrive(t, k, 1, 10, model.ClassForeground)
	arrive(t, k, 2, 10, model.ClassForeground)

	if got := ticks(k, 30); got != 1 {
		t.Fatalf("running = %d, want 1", got)
	}
	if k.Clock() != 300 {
		t.Errorf("clock = %d, want 300", k.Clock())
	}
}

func TestSetPriority_PriorityPreempts(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)
	arrive(t, k, 1, 10, model.ClassForeground)
	arrive(t, k, 2, 20, model.ClassForeground)
	arrive(t, k, 3, 25, model.ClassForeground)

	if got := k.SetPriority(15); got != 1 {
		t.Fatalf("SetPriority(15) = %d, want 1 (still best)", got)
	}
	if got := k.SetPriority(30); got != 2 {
		t.Fatalf("SetPriority(30) = %d, want 2", got)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 3, 1)
}

func TestSetPriority_NoPreemptOutsidePriority(t *testing.T) {
	for _, d := range []model.Discipline{model.DisciplineFCFS, model.DisciplineRR} {
		k := newKernel(t, d)
		arrive(t, k, 1, 10, model.ClassForeground)
		arrive(t, k, 2, 1, model.ClassForeground)

		if got := k.SetPriority(99); got != 1 {
			t.Errorf("%s: SetPriority = %d, want 1", d, got)
		}
		if got := k.RunningProcess().Priority; got != 99 {
			t.Errorf("%s: priority = %d, want 99", d, got)
		}
	}
}

func TestSetPriority_IdleUnchanged(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)

	if got := k.SetPriority(1); got != model.IdlePID {
		t.Fatalf("SetPriority on idle = %d, want idle", got)
	}
	if got := k.RunningProcess().Priority; got != model.DefaultPriority {
		t.Errorf("idle priority = %d, want %d", got, model.DefaultPriority)
	}
}

func TestRR_QuantumExpiry(t *testing.T) {
	k := newKernel(t, model.DisciplineRR)

	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)
	wantRunning(t, k, 1)

	for i, want := range []int{30, 20, 10} {
		if got := k.TimerInterrupt(); got != 1 {
			t.Fatalf("tick %d: running = %d, want 1", i+1, got)
		}
		if got := k.SliceRemaining(); got != want {
			t.Fatalf("tick %d: slice = %d, want %d", i+1, got, want)
		}
	}

	if got := k.TimerInterrupt(); got != 2 {
		t.Fatalf("tick 4: running = %d, want 2", got)
	}
	if k.SliceRemaining() != Quantum {
		t.Errorf("slice after dispatch = %d, want %d", k.SliceRemaining(), Quantum)
	}
	wantPIDs(t, "ready", k.Snapshot().Ready, 1)

	if got := ticks(k, 4); got != 1 {
		t.Fatalf("after second quantum running = %d, want 1", got)
	}
}

func TestRR_SingleProcessKeepsCPU(t *testing.T) {
	k := newKernel(t, model.DisciplineRR)
	arrive(t, k, 1, 0, model.ClassForeground)

	if got := ticks(k, 9); got != 1 {
		t.Fatalf("running = %d, want 1", got)
	}
	if got := k.SliceRemaining(); got != 30 {
		t.Errorf("slice = %d, want 30", got)
	}
}

func TestRR_IdleTickDoesNotConsumeSlice(t *testing.T) {
	k := newKernel(t, model.DisciplineRR)

	ticks(k, 5)
	if k.SliceRemaining() != Quantum {
		t.Errorf("slice = %d, want %d", k.SliceRemaining(), Quantum)
	}
	if k.Clock() != 50 {
		t.Errorf("clock = %d, want 50", k.Clock())
	}
}

func TestRR_ExitResetsQuantum(t *testing.T) {
	k := newKernel(t, model.DisciplineRR)
	arrive(t, k, 1, 0, model.ClassForeground)
	arrive(t, k, 2, 0, model.ClassForeground)
	ticks(k, 2)

	if got := k.Exit(); got != 2 {
		t.Fatalf("Exit() = %d, want 2", got)
	}
	if k.SliceRemaining() != Quantum {
		t.Errorf("slice = %d, want %d", k.SliceRemaining(), Quantum)
	}
}

func TestApply_RoutesEvents(t *testing.T) {
	k := newKernel(t, model.DisciplinePriority)
	pr := func(v int) *int { return &v }

	steps := []struct {
		ev   model.Event
		want model.PID
	}{
		{model.Event{Kind: model.EventArrival, PID: 1, Priority: pr(10)}, 1},
		{model.Event{Kind: model.EventArrival, PID: 2, Priority: pr(5)}, 2},
		{model.Event{Kind: model.EventMutexInit, Resource: 1}, 2},
		{model.Event{Kind: model.EventMutexLock, Resource: 1}, 2},
		{model.Event{Kind: model.EventSetPriority, Priority: pr(50)}, 1},
		{model.Event{Kind: model.EventMutexLock, Resource: 1}, 2},
		{model.Event{Kind: model.EventMutexUnlock, Resource: 1}, 1},
		{model.Event{Kind: model.EventTimer}, 1},
		{model.Event{Kind: model.EventExit}, 2},
	}
	for i, s := range steps {
		got, err := k.Apply(s.ev)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, s.ev, err)
		}
		if got != s.want {
			t.Fatalf("step %d (%s): running = %d, want %d", i, s.ev, got, s.want)
		}
	}
}

func TestApply_InvalidEvent(t *testing.T) {
	k := newKernel(t, model.DisciplineFCFS)

	if _, err := k.Apply(model.Event{Kind: "fork"}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Apply(fork) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := k.Apply(model.Event{Kind: model.EventSetPriority}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Apply(set_priority without value) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := k.Apply(model.Event{Kind: model.EventSemaphoreP, Resource: 3}); !errors.Is(err, model.ErrUnknownResource) {
		t.Errorf("Apply(semaphore_p unknown) error = %v, want ErrUnknownResource", err)
	}
}

// checkInvariants verifies the properties every handler must preserve.
func checkInvariants(t *testing.T, k *Kernel) {
	t.Helper()
	snap := k.Snapshot()

	seen := map[model.PID]string{}
	claim := func(pid model.PID, where string) {
		if prev, dup := seen[pid]; dup {
			t.Fatalf("pid %d in both %s and %s (snapshot %+v)", pid, prev, where, snap)
		}
		seen[pid] = where
	}
	if snap.Running != model.IdlePID {
		claim(snap.Running, "running")
	}
	for _, pid := range snap.Ready {
		claim(pid, "ready")
	}
	for _, pid := range snap.Foreground {
		claim(pid, "foreground")
	}
	for _, pid := range snap.Background {
		claim(pid, "background")
	}
	for _, s := range snap.Semaphores {
		for _, pid := range s.Waiters {
			claim(pid, "semaphore")
		}
		want := 0
		if s.Value < 0 {
			want = -s.Value
		}
		if len(s.Waiters) != want {
			t.Fatalf("semaphore %d: value %d with %d waiters", s.ID, s.Value, len(s.Waiters))
		}
	}
	for _, m := range snap.Mutexes {
		for _, pid := range m.Waiters {
			claim(pid, "mutex")
			if m.Locked && pid == m.Owner {
				t.Fatalf("mutex %d: owner %d is also waiting", m.ID, pid)
			}
		}
		if m.Locked && m.Owner == model.IdlePID {
			t.Fatalf("mutex %d locked without owner", m.ID)
		}
		if !m.Locked && len(m.Waiters) > 0 {
			t.Fatalf("mutex %d unlocked with waiters %v", m.ID, m.Waiters)
		}
	}

	if snap.Running == model.IdlePID && k.Queued() != 0 {
		t.Fatalf("running=%d with %d queued", snap.Running, k.Queued())
	}
}

func TestInvariants_RandomWorkload(t *testing.T) {
	for _, d := range model.Disciplines {
		t.Run(string(d), func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			k := newKernel(t, d)
			for id := 1; id <= 3; id++ {
				if err := k.SemaphoreInit(id, rng.Intn(2)); err != nil {
					t.Fatal(err)
				}
				if err := k.MutexInit(id); err != nil {
					t.Fatal(err)
				}
			}

			nextPID := model.PID(1)
			semV := map[int]int{}
			semP := map[int]int{}
			initial := map[int]int{}
			for _, s := range k.Snapshot().Semaphores {
				initial[s.ID] = s.Value
			}

			for step := 0; step < 2000; step++ {
				res := 1 + rng.Intn(3)
				var err error
				switch op := rng.Intn(10); op {
				case 0, 1:
					class := model.ClassForeground
					if rng.Intn(2) == 0 {
						class = model.ClassBackground
					}
					_, err = k.Arrive(nextPID, rng.Intn(40), class)
					nextPID++
				case 2:
					k.Exit()
				case 3:
					k.SetPriority(rng.Intn(40))
				case 4:
					if _, err = k.SemaphoreP(res); err == nil {
						semP[res]++
					}
				case 5:
					if _, err = k.SemaphoreV(res); err == nil {
						semV[res]++
					}
				case 6:
					_, err = k.MutexLock(res)
				case 7:
					_, err = k.MutexUnlock(res)
				default:
					k.TimerInterrupt()
				}
				if err != nil && !errors.Is(err, model.ErrInvalidArgument) {
					t.Fatalf("step %d: unexpected error %v", step, err)
				}
				checkInvariants(t, k)
			}

			for _, s := range k.Snapshot().Semaphores {
				if want := initial[s.ID] - semP[s.ID] + semV[s.ID]; s.Value != want {
					t.Errorf("semaphore %d value = %d, want %d", s.ID, s.Value, want)
				}
			}
		})
	}
}
