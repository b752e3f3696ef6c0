package vector

import (
	"container/heap"
	"sort"
)

// worse 定义结果的全序：距离更大或距离相同行号更大者更差。
func worse(a, b Result) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Row > b.Row
}

// resultHeap 以最差结果为堆顶的大顶堆
type resultHeap []Result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)        { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK 保留 k 个最好的结果。
type topK struct {
	k int
	h resultHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(resultHeap, 0, k)}
}

func (t *topK) push(r Result) {
	if t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, r)
		return
	}
	if worse(t.h[0], r) {
		t.h[0] = r
		heap.Fix(&t.h, 0)
	}
}

// sorted 返回按距离升序、行号升序的结果。
func (t *topK) sorted() []Result {
	out := append([]Result(nil), t.h...)
	sortResults(out)
	return out
}

func sortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool { return worse(rs[j], rs[i]) })
}

// mergeTopK 合并多个分片的局部 top-k；全序保证结果与分片方式无关。
func mergeTopK(k int, parts ...[]Result) []Result {
	t := newTopK(k)
	for _, p := range parts {
		for _, r := range p {
			t.push(r)
		}
	}
	return t.sorted()
}
