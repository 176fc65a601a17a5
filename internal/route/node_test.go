package route

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewNodeEfficiency(t *testing.T) {
	n := NewNode(3, orb.Point{10, 20}, 4, 42, 0.75)

	if n.ID != 3 {
		t.Errorf("ID = %d, want 3", n.ID)
	}
	if n.Efficiency != 3 {
		t.Errorf("Efficiency = %v, want %v", n.Efficiency, 3.0)
	}
	if got := n.neighborIDs(); len(got) != 0 {
		t.Errorf("new node should have no neighbors, got %v", got)
	}
}

func TestDistanceTo(t *testing.T) {
	a := NewNode(0, orb.Point{0, 0}, 1, 10, 1)
	b := NewNode(1, orb.Point{30, 40}, 1, 10, 1)
	c := NewNode(2, orb.Point{30, 40}, 1, 10, 1)

	if d := a.DistanceTo(b); d != 50 {
		t.Errorf("DistanceTo = %v, want 50", d)
	}
	if a.DistanceTo(b) != b.DistanceTo(a) {
		t.Errorf("distance should be symmetric: %v vs %v", a.DistanceTo(b), b.DistanceTo(a))
	}
	if d := b.DistanceTo(c); d != 0 {
		t.Errorf("same position distance = %v, want 0", d)
	}
	if d := a.DistanceTo(a); d != 0 || math.Signbit(d) {
		t.Errorf("self distance = %v, want 0", d)
	}
}

func TestNeighborIDsReturnsCopy(t *testing.T) {
	topology := newTestTopology(t, 150, orb.Point{0, 0}, orb.Point{100, 0})

	ids, err := topology.NeighborIDs(0)
	if err != nil {
		t.Fatalf("NeighborIDs(0) returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("NeighborIDs(0) = %v, want [1]", ids)
	}

	ids[0] = 99
	if got, _ := topology.NeighborIDs(0); got[0] != 1 {
		t.Errorf("mutating the returned slice changed the topology: %v", got)
	}
	if _, err := topology.NeighborIDs(2); err == nil {
		t.Error("NeighborIDs(2) should fail for an unknown node")
	}
}
