package kernel

import "github.com/me/kernsim/pkg/model"

// fcfs runs records to completion in arrival order.
type fcfs struct{ unified }

func (fcfs) discipline() model.Discipline { return model.DisciplineFCFS }

func (fcfs) selectNext(k *Kernel) *model.Process {
	if p := k.ready.popFront(); p != nil {
		return p
	}
	return k.idle
}
