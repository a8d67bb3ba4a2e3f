package collision

// indexedFrame is the result of the frame at index in a batch. A nil
// frame marks a skipped one.
type indexedFrame struct {
	index int
	frame *CollisionFrame
}

// Copied from container/heap - https://golang.org/pkg/container/heap/
// Why make copy? Just want to avoid type conversion

// frameHeap is a min-heap on frame index, used to emit out of order
// results in order.
type frameHeap []indexedFrame

func (h frameHeap) Len() int           { return len(h) }
func (h frameHeap) Less(i, j int) bool { return h[i].index < h[j].index }
func (h frameHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *frameHeap) Push(x indexedFrame) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the minimum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *frameHeap) Pop() indexedFrame {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	last := (*h)[n]
	*h = (*h)[:n]
	return last
}

// Peek returns the minimum element without removing it
func (h frameHeap) Peek() (indexedFrame, bool) {
	if len(h) == 0 {
		return indexedFrame{}, false
	}
	return h[0], true
}

func (h frameHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h frameHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}
