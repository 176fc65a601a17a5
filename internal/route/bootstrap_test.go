package route

import (
	"context"
	"errors"
	"testing"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Log.Level = "disabled"
	cfg.Topology.NodeCount = 30
	cfg.Topology.Seed = 4
	cfg.Server.GRPCAddr = "127.0.0.1:0"
	cfg.Server.MetricsAddr = ""
	cfg.Simulation.Workers = 3
	return &cfg
}

func newTestSimulator(t *testing.T, cfg *Config) *Simulator {
	t.Helper()

	sim := NewSimulator(cfg)
	if err := sim.Init(context.Background()); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	t.Cleanup(sim.Stop)
	return sim
}

func TestSimulatorInit(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	if sim.RunID() == "" {
		t.Error("run id should be set")
	}
	if sim.Topology().Len() != 30 {
		t.Errorf("topology has %d nodes, want 30", sim.Topology().Len())
	}
	if !sim.Topology().NeighborsComputed() {
		t.Error("Init should compute neighbor sets")
	}
	if sim.Topology().Threshold() != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", sim.Topology().Threshold(), DefaultThreshold)
	}
	if sim.Registry() == nil || sim.Manager() == nil {
		t.Error("registry and manager should be initialized")
	}
}

func TestSimulatorInitInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Topology.Threshold = 0

	sim := NewSimulator(cfg)
	if err := sim.Init(context.Background()); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("Init() error = %v, want ErrInvalidThreshold", err)
	}
}

func TestSimulatorRouteFarthest(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	hops := 0
	result, err := sim.RouteFarthest(HopObserverFunc(func(Hop) { hops++ }))
	if err != nil {
		t.Fatalf("RouteFarthest() returned error: %v", err)
	}

	from, to, _ := FindFarthestPair(sim.Topology().Nodes())
	if result.Source != from.ID || result.Destination != to.ID {
		t.Errorf("routed %d->%d, want farthest pair %d->%d", result.Source, result.Destination, from.ID, to.ID)
	}
	if hops != result.HopCount() {
		t.Errorf("observer saw %d hops, want %d", hops, result.HopCount())
	}
}

func TestSimulatorRouteFarthestSingleNode(t *testing.T) {
	cfg := testConfig()
	cfg.Topology.NodeCount = 1
	sim := newTestSimulator(t, cfg)

	_, err := sim.RouteFarthest()
	var insufficient *InsufficientNodesError
	if !errors.As(err, &insufficient) {
		t.Errorf("RouteFarthest() error = %v, want *InsufficientNodesError", err)
	}
}

func TestSimulatorRunFlows(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	stats, err := sim.RunFlows(context.Background(), 50)
	if err != nil {
		t.Fatalf("RunFlows() returned error: %v", err)
	}
	if stats.RoutesAttempted != 50 {
		t.Errorf("attempted = %d, want 50", stats.RoutesAttempted)
	}
	if stats.RoutesDelivered+stats.Failed() != stats.RoutesAttempted {
		t.Errorf("delivered %d + failed %d != attempted %d", stats.RoutesDelivered, stats.Failed(), stats.RoutesAttempted)
	}
	if stats.LoopDetected != 0 {
		t.Errorf("loop detected %d times, want 0", stats.LoopDetected)
	}

	again, err := sim.RunFlows(context.Background(), 50)
	if err != nil {
		t.Fatalf("RunFlows() returned error: %v", err)
	}
	if again != stats {
		t.Errorf("same seed produced different flows: %+v vs %+v", again, stats)
	}
}

func TestSimulatorRunFlowsCanceled(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := sim.RunFlows(ctx, 20)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunFlows() error = %v, want context.Canceled", err)
	}
	if stats.RoutesAttempted != 0 {
		t.Errorf("attempted = %d, want 0", stats.RoutesAttempted)
	}
}

func TestSimulatorStartServesGRPC(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	if err := sim.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	client, err := DialRouteService(sim.GRPCAddr().String())
	if err != nil {
		t.Fatalf("DialRouteService() returned error: %v", err)
	}
	defer client.Close()

	resp, err := client.Ping(testContext(t), "ping")
	if err != nil {
		t.Fatalf("Ping() returned error: %v", err)
	}
	if resp.Msg != "pong from "+sim.RunID() {
		t.Errorf("Ping() = %q", resp.Msg)
	}
}
