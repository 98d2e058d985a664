package minhash

// hashHeap is a max-heap of hash values, used to track the bottom-k set (satisfies https://golang.org/pkg/container/heap/)
type hashHeap []uint64

// Less returns the larger value, so the largest hash in the sketch sits at index 0 and can be evicted first
func (h hashHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h hashHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h hashHeap) Len() int           { return len(h) }

// Push is a method to add an element to the heap
func (h *hashHeap) Push(x interface{}) {
	*h = append(*h, x.(uint64))
}

// Pop is a method to remove an element from the heap
func (h *hashHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
