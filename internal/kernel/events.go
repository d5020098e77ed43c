package kernel

import (
	"fmt"

	"github.com/me/kernsim/pkg/model"
)

// Apply routes a driver event to its handler and returns the PID now running.
func (k *Kernel) Apply(ev model.Event) (model.PID, error) {
	if err := ev.Validate(); err != nil {
		return k.running.PID, fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}

	switch ev.Kind {
	case model.EventArrival:
		return k.Arrive(ev.PID, ev.PriorityOrDefault(), ev.Class)
	case model.EventExit:
		return k.Exit(), nil
	case model.EventSetPriority:
		return k.SetPriority(*ev.Priority), nil
	case model.EventSemaphoreInit:
		return k.running.PID, k.SemaphoreInit(ev.Resource, ev.Value)
	case model.EventSemaphoreP:
		return k.SemaphoreP(ev.Resource)
	case model.EventSemaphoreV:
		return k.SemaphoreV(ev.Resource)
	case model.EventMutexInit:
		return k.running.PID, k.MutexInit(ev.Resource)
	case model.EventMutexLock:
		return k.MutexLock(ev.Resource)
	case model.EventMutexUnlock:
		return k.MutexUnlock(ev.Resource)
	case model.EventTimer:
		return k.TimerInterrupt(), nil
	}
	return k.running.PID, fmt.Errorf("%w: unhandled event kind %q", model.ErrInvalidArgument, ev.Kind)
}
