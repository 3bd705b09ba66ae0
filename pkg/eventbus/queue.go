package eventbus

import "container/heap"

// pqueue is a container/heap priority queue of Events: strictly by
// Priority, FIFO within a priority (spec.md §4.6, §5).
type pqueue []Event

func (q pqueue) Len() int { return len(q) }

func (q pqueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority < q[j].Priority
	}
	return q[i].seq < q[j].seq
}

func (q pqueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pqueue) Push(x any) {
	*q = append(*q, x.(Event))
}

func (q *pqueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

var _ = heap.Interface(&pqueue{})
