package stronghold

import "container/heap"

// eventType is a step of the turn commit
type eventType int

const (
	eventBuild   eventType = iota // count down a build or upgrade
	eventOrder                    // advance an in-progress order
	eventResolve                  // auto-resolve a ready order
	eventUpkeep                   // charge staff upkeep
)

// String returns a string representation of the event type
func (et eventType) String() string {
	switch et {
	case eventBuild:
		return "build"
	case eventOrder:
		return "order"
	case eventResolve:
		return "resolve"
	case eventUpkeep:
		return "upkeep"
	default:
		return "unknown"
	}
}

// priority orders event types within a turn; lower runs first. Builds finish
// before orders advance so an upgraded facility reports its new definition,
// and upkeep is charged after every order has paid out.
func (et eventType) priority() int {
	switch et {
	case eventBuild:
		return 0
	case eventOrder:
		return 1
	case eventResolve:
		return 2
	case eventUpkeep:
		return 3
	default:
		return 99
	}
}

// event is one scheduled step of a turn commit
type event struct {
	Type       eventType
	InstanceID string
	OrderID    string
	Sequence   int64 // insertion order, breaks priority ties
}

type eventHeap []event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Type.priority() != h[j].Type.priority() {
		return h[i].Type.priority() < h[j].Type.priority()
	}
	return h[i].Sequence < h[j].Sequence
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// eventQueue is a min-heap of events ordered by (priority, sequence). Events
// pushed in a stable order therefore pop in a stable order.
type eventQueue struct {
	h   eventHeap
	seq int64
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	heap.Init(&q.h)
	return q
}

// push adds an event, stamping its sequence number
func (q *eventQueue) push(e event) {
	q.seq++
	e.Sequence = q.seq
	heap.Push(&q.h, e)
}

// pop removes the next event; ok is false when the queue is empty
func (q *eventQueue) pop() (event, bool) {
	if len(q.h) == 0 {
		return event{}, false
	}
	return heap.Pop(&q.h).(event), true
}

func (q *eventQueue) Len() int {
	return len(q.h)
}
