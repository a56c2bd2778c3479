package graph

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrNoRoute is returned when no path connects two systems, including when
// the safe-route restriction disconnects an otherwise reachable pair.
var ErrNoRoute = errors.New("no route between systems")

// JumpCount returns the number of jumps on the shortest path between two
// systems. With safeOnly set, only systems at or above HighsecThreshold are
// traversed (and the endpoints themselves must be safe).
func (u *Universe) JumpCount(from, to int32, safeOnly bool) (int, error) {
	if from == to {
		return 0, nil
	}
	if safeOnly && (!u.Safe(from) || !u.Safe(to)) {
		return 0, fmt.Errorf("%w: endpoint below highsec threshold", ErrNoRoute)
	}

	dist := map[int32]int{from: 0}
	pq := &jumpQueue{{systemID: from, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(jumpItem)
		if item.systemID == to {
			return item.dist, nil
		}
		if d, ok := dist[item.systemID]; ok && item.dist > d {
			continue
		}
		for _, neighbor := range u.adj[item.systemID] {
			if safeOnly && !u.Safe(neighbor) {
				continue
			}
			nd := item.dist + 1
			if d, ok := dist[neighbor]; !ok || nd < d {
				dist[neighbor] = nd
				heap.Push(pq, jumpItem{systemID: neighbor, dist: nd})
			}
		}
	}
	return 0, fmt.Errorf("%w: %d -> %d", ErrNoRoute, from, to)
}

type jumpItem struct {
	systemID int32
	dist     int
}

type jumpQueue []jumpItem

func (q jumpQueue) Len() int            { return len(q) }
func (q jumpQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q jumpQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *jumpQueue) Push(x interface{}) { *q = append(*q, x.(jumpItem)) }
func (q *jumpQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
