package route

import (
	"math"
	"slices"

	"github.com/google/btree"
)

// ComputeNeighbors 计算 population 中与 node 距离严格小于 threshold 的其他节点
// 返回按 ID 升序的邻居 ID；非正阈值返回空集合
func ComputeNeighbors(node *Node, population []*Node, threshold float64) []int {
	if !(threshold > 0) {
		return []int{}
	}

	neighbors := make([]int, 0)
	for _, other := range population {
		if other.ID != node.ID && node.DistanceTo(other) < threshold {
			neighbors = append(neighbors, other.ID)
		}
	}
	slices.Sort(neighbors)
	return neighbors
}

type indexEntry struct {
	x  float64
	id int
}

func lessEntry(a, b indexEntry) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	return a.id < b.id
}

// NeighborIndex 按 x 坐标排序的节点索引
// 查询时只对 |dx| < threshold 的候选节点计算距离，结果与 ComputeNeighbors 一致
type NeighborIndex struct {
	tree  *btree.BTreeG[indexEntry]
	nodes map[int]*Node
}

// NewNeighborIndex 为一组节点建立索引，建立后只读，可并发查询
func NewNeighborIndex(population []*Node) *NeighborIndex {
	idx := &NeighborIndex{
		tree:  btree.NewG(16, lessEntry),
		nodes: make(map[int]*Node, len(population)),
	}
	for _, node := range population {
		idx.tree.ReplaceOrInsert(indexEntry{x: node.Position.X(), id: node.ID})
		idx.nodes[node.ID] = node
	}
	return idx
}

// Within 返回与 node 距离严格小于 threshold 的节点 ID（升序，不含自身）
func (idx *NeighborIndex) Within(node *Node, threshold float64) []int {
	if !(threshold > 0) {
		return []int{}
	}

	x := node.Position.X()
	lower := indexEntry{x: x - threshold, id: math.MinInt}
	upper := indexEntry{x: x + threshold, id: math.MinInt}

	neighbors := make([]int, 0)
	idx.tree.AscendRange(lower, upper, func(e indexEntry) bool {
		if e.id == node.ID {
			return true
		}
		if node.DistanceTo(idx.nodes[e.id]) < threshold {
			neighbors = append(neighbors, e.id)
		}
		return true
	})
	slices.Sort(neighbors)
	return neighbors
}

func (idx *NeighborIndex) Len() int {
	return idx.tree.Len()
}
