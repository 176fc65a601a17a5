package georoute

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"georoute/internal/route"
)

func chain() []Position {
	return []Position{{X: 100, Y: 100}, {X: 150, Y: 100}, {X: 200, Y: 100}, {X: 250, Y: 100}}
}

func TestNewWithPositionsRoute(t *testing.T) {
	sim, err := NewWithPositions(Config{Threshold: 60, LogLevel: "disabled"}, chain())
	if err != nil {
		t.Fatalf("NewWithPositions() returned error: %v", err)
	}
	defer sim.Stop()

	result, err := sim.Route(0, 3)
	if err != nil {
		t.Fatalf("Route() returned error: %v", err)
	}
	if !result.Delivered() {
		t.Fatalf("Route(0, 3) = %s, want delivered", result.Status())
	}
	if got := result.PathIDs(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("path = %v, want [0 1 2 3]", got)
	}

	if !strings.Contains(sim.Topology(), "threshold=60.0") {
		t.Errorf("Topology() missing threshold:\n%s", sim.Topology())
	}
}

func TestSimulationSetThreshold(t *testing.T) {
	sim, err := NewWithPositions(Config{Threshold: 60, LogLevel: "disabled"}, chain())
	if err != nil {
		t.Fatalf("NewWithPositions() returned error: %v", err)
	}
	defer sim.Stop()

	if err := sim.SetThreshold(context.Background(), 40); err != nil {
		t.Fatalf("SetThreshold() returned error: %v", err)
	}
	result, err := sim.Route(0, 3)
	if err != nil {
		t.Fatalf("Route() returned error: %v", err)
	}
	if result.Reason != route.ReasonNoNeighbors {
		t.Errorf("reason = %s, want no-neighbors", result.Reason)
	}

	if err := sim.SetThreshold(context.Background(), -1); !errors.Is(err, route.ErrInvalidThreshold) {
		t.Errorf("SetThreshold(-1) error = %v, want ErrInvalidThreshold", err)
	}
}

func TestSimulationSurvey(t *testing.T) {
	sim, err := NewWithPositions(Config{Threshold: 60, LogLevel: "disabled"}, chain())
	if err != nil {
		t.Fatalf("NewWithPositions() returned error: %v", err)
	}
	defer sim.Stop()

	ratio, err := sim.Survey(context.Background(), 0)
	if err != nil {
		t.Fatalf("Survey() returned error: %v", err)
	}
	if ratio != 1 {
		t.Errorf("Survey() ratio = %v, want 1", ratio)
	}
}

func TestNewRandomSimulation(t *testing.T) {
	sim, err := New(Config{Nodes: 25, Seed: 3, LogLevel: "disabled"})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer sim.Stop()

	result, err := sim.RouteFarthest()
	if err != nil {
		t.Fatalf("RouteFarthest() returned error: %v", err)
	}
	if result.Source == result.Destination {
		t.Errorf("farthest pair should be two distinct nodes, got %d", result.Source)
	}

	stats, err := sim.RunFlows(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunFlows() returned error: %v", err)
	}
	if stats.RoutesAttempted != 10 {
		t.Errorf("attempted = %d, want 10", stats.RoutesAttempted)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	if _, err := NewWithPositions(Config{LogLevel: "disabled"}, nil); !errors.Is(err, route.ErrInvalidNodeCount) {
		t.Errorf("NewWithPositions(nil) error = %v, want ErrInvalidNodeCount", err)
	}
	if _, err := New(Config{Nodes: 5, Threshold: -3, LogLevel: "disabled"}); !errors.Is(err, route.ErrInvalidThreshold) {
		t.Errorf("New(threshold=-3) error = %v, want ErrInvalidThreshold", err)
	}
}

func TestSimulationRouteResultsIndependent(t *testing.T) {
	sim, err := NewWithPositions(Config{Threshold: 60, LogLevel: "disabled"}, chain())
	if err != nil {
		t.Fatalf("NewWithPositions() returned error: %v", err)
	}
	defer sim.Stop()

	first, err := sim.Route(0, 3)
	if err != nil {
		t.Fatalf("Route() returned error: %v", err)
	}
	first.Path[1] = first.Path[3]

	second, err := sim.Route(0, 3)
	if err != nil {
		t.Fatalf("Route() returned error: %v", err)
	}
	if got := second.PathIDs(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("path = %v, want [0 1 2 3]", got)
	}
}
