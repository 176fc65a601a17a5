package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"georoute/internal/route"
)

var (
	configFile = flag.String("config", "", "Config file path (.toml or .yaml)")

	// 命令行覆盖配置文件
	nodeCount = flag.Int("nodes", 0, "Number of vehicles (overrides config)")
	threshold = flag.Float64("threshold", 0, "Neighbor distance threshold (overrides config)")
	seed      = flag.Int64("seed", 0, "Random seed (overrides config)")
	flows     = flag.Int("flows", -1, "Random source/destination flows to route (overrides config)")
	serve     = flag.Bool("serve", false, "Keep serving gRPC and metrics after the demo route")
	grpcAddr  = flag.String("grpc", "", "gRPC listen address (overrides config)")
	logLevel  = flag.String("log-level", "", "Log level (overrides config)")
	pretty    = flag.Bool("pretty", false, "Human readable console logs")
)

func main() {
	flag.Parse()

	cfg, err := route.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := route.NewSimulator(cfg)
	if err := sim.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize simulation: %v\n", err)
		os.Exit(1)
	}
	defer sim.Stop()
	logger := sim.Logger()

	if _, err := sim.RouteFarthest(); err != nil {
		logger.Error().Err(err).Msg("demo route failed")
	}

	if cfg.Simulation.Flows > 0 {
		stats, err := sim.RunFlows(ctx, cfg.Simulation.Flows)
		if err != nil {
			logger.Warn().Err(err).Msg("flows did not complete")
		}
		stats.LogStats(logger)
	}

	if !cfg.Server.Serve {
		return
	}

	if err := sim.Start(); err != nil {
		logger.Error().Err(err).Msg("failed to start servers")
		return
	}

	// 等待中断信号
	<-ctx.Done()
}

func applyFlags(cfg *route.Config) {
	if *nodeCount > 0 {
		cfg.Topology.NodeCount = *nodeCount
	}
	if *threshold != 0 {
		cfg.Topology.Threshold = *threshold
	}
	if *seed != 0 {
		cfg.Topology.Seed = *seed
	}
	if *flows >= 0 {
		cfg.Simulation.Flows = *flows
	}
	if *serve {
		cfg.Server.Serve = true
	}
	if *grpcAddr != "" {
		cfg.Server.GRPCAddr = *grpcAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *pretty {
		cfg.Log.Pretty = true
	}
}
