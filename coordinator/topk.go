package coordinator

import "container/heap"

// scoreHeap is a min-heap of float64, the same container/heap idiom the
// teacher repo uses for its priority queues (e.g. graph/algorithms'
// Dijkstra), repurposed here to track the K best scores seen across every
// Worker's score reports.
type scoreHeap []float64

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(float64)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// topKFloor maintains the K best scores reported across every Worker and
// derives the global min_score floor: once K scores have been seen, any
// further candidate must beat the worst of the current top K to be worth
// keeping.
//
// This is distinct from each Worker's own per-Workspace K cutoff: a
// Worker only ever sees its own accepted list, so the true cross-worker
// top K requires this coordinator-side merge.
type topKFloor struct {
	k int
	h scoreHeap
}

// newTopKFloor returns a tracker for the K best scores. k <= 0 means no
// cap ever applies (floor never rises from this source).
func newTopKFloor(k int) *topKFloor {
	return &topKFloor{k: k}
}

// Add records a newly reported score and returns the updated floor. have
// is false until K scores have been recorded.
func (t *topKFloor) Add(score float64) (floor float64, have bool) {
	if t.k <= 0 {
		return 0, false
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, score)
	} else if score > t.h[0] {
		heap.Pop(&t.h)
		heap.Push(&t.h, score)
	}
	if len(t.h) == t.k {
		return t.h[0], true
	}
	return 0, false
}
