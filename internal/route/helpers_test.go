package route

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
)

var testBounds = orb.Bound{Min: orb.Point{-2000, -2000}, Max: orb.Point{2000, 2000}}

// newTestTopology 按给定位置创建节点（ID 依次为 0..n-1）并计算邻居
func newTestTopology(t *testing.T, threshold float64, points ...orb.Point) *Topology {
	t.Helper()

	nodes := make([]*Node, len(points))
	for i, p := range points {
		nodes[i] = NewNode(i, p, 3, 50, 0.9)
	}
	topology, err := NewTopology(nodes, testBounds)
	if err != nil {
		t.Fatalf("NewTopology() returned error: %v", err)
	}
	if err := topology.ComputeNeighbors(context.Background(), threshold, 2); err != nil {
		t.Fatalf("ComputeNeighbors(%v) returned error: %v", threshold, err)
	}
	return topology
}

// newRandomTopology 随机拓扑，邻居已计算
func newRandomTopology(t *testing.T, count int, threshold float64, seed int64) *Topology {
	t.Helper()

	topology, err := BuildTopology(count, DefaultAreaWidth, DefaultAreaHeight, seed)
	if err != nil {
		t.Fatalf("BuildTopology(%d, seed=%d) returned error: %v", count, seed, err)
	}
	if err := topology.ComputeNeighbors(context.Background(), threshold, 4); err != nil {
		t.Fatalf("ComputeNeighbors(%v) returned error: %v", threshold, err)
	}
	return topology
}

func mustNode(t *testing.T, topology *Topology, id int) *Node {
	t.Helper()

	node, err := topology.Node(id)
	if err != nil {
		t.Fatalf("Node(%d) returned error: %v", id, err)
	}
	return node
}
