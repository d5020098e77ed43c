package kernel

import "github.com/me/kernsim/pkg/model"

// queue is an ordered collection of process records waiting for the CPU or
// blocked on a resource. The zero value is an empty queue.
type queue struct {
	items []*model.Process
}

func (q *queue) len() int {
	return len(q.items)
}

func (q *queue) pushBack(p *model.Process) {
	q.items = append(q.items, p)
}

func (q *queue) pushFront(p *model.Process) {
	q.items = append(q.items, nil)
	copy(q.items[1:], q.items)
	q.items[0] = p
}

// popFront removes and returns the head, or nil when empty.
func (q *queue) popFront() *model.Process {
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return p
}

func (q *queue) remove(p *model.Process) bool {
	for i, item := range q.items {
		if item == p {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// min returns the first record for which no other record is less, or nil when empty.
func (q *queue) min(less func(a, b *model.Process) bool) *model.Process {
	var best *model.Process
	for _, item := range q.items {
		if best == nil || less(item, best) {
			best = item
		}
	}
	return best
}

func (q *queue) removeMin(less func(a, b *model.Process) bool) *model.Process {
	best := q.min(less)
	if best != nil {
		q.remove(best)
	}
	return best
}

func (q *queue) pids() []model.PID {
	out := make([]model.PID, len(q.items))
	for i, item := range q.items {
		out[i] = item.PID
	}
	return out
}

func byPID(a, b *model.Process) bool {
	return a.PID < b.PID
}

func byDominance(a, b *model.Process) bool {
	return a.Dominates(b)
}
