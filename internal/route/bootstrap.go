package route

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// Simulator 代表一次完整的仿真运行
// 生命周期：NewSimulator -> Init -> (RouteFarthest / RunFlows / Start) -> Stop
type Simulator struct {
	config *Config
	runID  string

	logger    zerolog.Logger
	logCloser io.Closer

	topology *Topology
	manager  *RouteManager

	registry *prometheus.Registry
	metrics  *Metrics

	grpcServer *grpc.Server
	httpServer *http.Server
	grpcAddr   net.Addr
}

// NewSimulator 创建仿真实例
func NewSimulator(config *Config) *Simulator {
	return &Simulator{
		config: config,
		runID:  uuid.NewString(),
	}
}

// WithTopology 使用给定拓扑代替随机生成，需在 Init 之前调用
func (s *Simulator) WithTopology(topology *Topology) *Simulator {
	s.topology = topology
	return s
}

// Init 初始化日志、拓扑、邻居集合和路由管理器
func (s *Simulator) Init(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := NewLogger(s.config.Log, s.runID)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	s.logger, s.logCloser = logger, closer

	topoCfg := s.config.Topology
	s.logger.Info().
		Int("nodes", topoCfg.NodeCount).
		Float64("width", topoCfg.Width).
		Float64("height", topoCfg.Height).
		Float64("threshold", topoCfg.Threshold).
		Int64("seed", topoCfg.Seed).
		Msg("=== Simulation Initialization ===")

	if s.topology == nil {
		s.topology, err = s.config.Builder().Build(topoCfg.NodeCount, topoCfg.Seed)
		if err != nil {
			return fmt.Errorf("failed to build topology: %w", err)
		}
	}

	s.registry, s.metrics = InitMetrics(s.logger)
	s.manager, err = NewRouteManager(s.topology, ManagerOptions{
		CacheSize: s.config.Simulation.CacheSize,
		Workers:   s.config.Simulation.Workers,
		Metrics:   s.metrics,
		Logger:    s.logger,
	})
	if err != nil {
		return err
	}

	s.manager.SetTopologyChangeCallback(func(t *Topology) {
		if e := s.logger.Debug(); e.Enabled() {
			e.Msg("topology changed\n" + t.String())
		}
	})

	if err := s.manager.Recompute(ctx, topoCfg.Threshold); err != nil {
		return err
	}
	return nil
}

// Start 启动 gRPC 服务和指标服务
func (s *Simulator) Start() error {
	lis, err := net.Listen("tcp", s.config.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.grpcAddr = lis.Addr()

	s.grpcServer = grpc.NewServer()
	RegisterRouteServiceServer(s.grpcServer, NewRouteServer(s.runID, s.manager, s.logger))

	go func() {
		s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC server started")
		if err := s.grpcServer.Serve(lis); err != nil {
			s.logger.Error().Err(err).Msg("gRPC server error")
		}
	}()

	if s.config.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", MetricsHandler(s.registry))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		s.httpServer = &http.Server{
			Addr:              s.config.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 2 * time.Second,
		}
		go func() {
			s.logger.Info().Str("addr", s.config.Server.MetricsAddr).Msg("metrics server started")
			if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}
	return nil
}

// Stop 停止服务并关闭日志文件
func (s *Simulator) Stop() {
	s.logger.Info().Msg("shutting down")
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
	if s.manager != nil {
		s.manager.Stats().LogStats(s.logger)
	}
	s.logger.Info().Msg("shutdown complete")
	if s.logCloser != nil {
		_ = s.logCloser.Close()
	}
}

// RouteFarthest 在距离最远的两个节点之间路由，并记录每一跳
func (s *Simulator) RouteFarthest(observers ...HopObserver) (RouteResult, error) {
	source, destination, err := FindFarthestPair(s.topology.Nodes())
	if err != nil {
		return RouteResult{}, err
	}

	s.logger.Info().
		Int("source", source.ID).
		Int("destination", destination.ID).
		Float64("distance", source.DistanceTo(destination)).
		Msg("routing between farthest pair")

	observer := append(MultiObserver{NewLogObserver(s.logger)}, observers...)
	result, err := s.manager.RouteWithObserver(source.ID, destination.ID, observer)
	if err != nil {
		return RouteResult{}, err
	}

	event := s.logger.Info()
	if !result.Delivered() {
		event = s.logger.Warn()
	}
	event.Str("status", result.Status()).
		Ints("path", result.PathIDs()).
		Int("hops", result.HopCount()).
		Msg("route finished")
	return result, nil
}

// RunFlows 并发路由 n 个随机源/目的对
// 每次路由都是独立计算；ctx 在两次路由之间检查，取消后返回已完成部分的统计
func (s *Simulator) RunFlows(ctx context.Context, n int) (ForwardStats, error) {
	if n <= 0 || s.topology.Len() < 2 {
		return ForwardStats{}, nil
	}

	seed := uint64(s.config.Topology.Seed)
	rng := rand.New(rand.NewPCG(seed+1, seed^0xda942042e4dd58b5))
	type flow struct{ source, destination int }
	flows := make([]flow, n)
	for i := range flows {
		src := rng.IntN(s.topology.Len())
		dst := rng.IntN(s.topology.Len() - 1)
		if dst >= src {
			dst++
		}
		flows[i] = flow{source: src, destination: dst}
	}

	var (
		recorder statsRecorder
		wg       sync.WaitGroup
		errMtx   sync.Mutex
		firstErr error
	)
	jobs := make(chan flow)
	for w := 0; w < s.config.Simulation.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				result, err := s.manager.Route(f.source, f.destination)
				if err != nil {
					errMtx.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMtx.Unlock()
					continue
				}
				recorder.record(result)
			}
		}()
	}

feed:
	for _, f := range flows {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- f:
		}
	}
	close(jobs)
	wg.Wait()

	stats := recorder.snapshot()
	s.logger.Info().
		Int("flows", n).
		Int64("completed", stats.RoutesAttempted).
		Float64("delivery_ratio", stats.DeliveryRatio()).
		Msg("flows finished")

	if firstErr != nil {
		return stats, firstErr
	}
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("flows interrupted: %w", err)
	}
	return stats, nil
}

func (s *Simulator) RunID() string {
	return s.runID
}

func (s *Simulator) Logger() zerolog.Logger {
	return s.logger
}

func (s *Simulator) Topology() *Topology {
	return s.topology
}

func (s *Simulator) Manager() *RouteManager {
	return s.manager
}

func (s *Simulator) Registry() *prometheus.Registry {
	return s.registry
}

// GRPCAddr 实际监听地址，Start 之前为 nil
func (s *Simulator) GRPCAddr() net.Addr {
	return s.grpcAddr
}
