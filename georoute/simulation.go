package georoute

import (
	"context"
	"fmt"
	"time"

	"georoute/internal/route"

	"github.com/paulmach/orb"
)

// 对外暴露的路由结果类型
type (
	RouteResult = route.RouteResult
	Hop         = route.Hop
	HopObserver = route.HopObserver
	Stats       = route.ForwardStats
)

// Simulation 是对外提供的仿真入口
// 封装了拓扑生成、邻居计算和贪婪地理路由，业务层只需调用简单的 API
type Simulation struct {
	sim *route.Simulator
}

// Config 仿真配置
type Config struct {
	// 必填项
	Nodes int // 节点数量，如 10

	// 可选项
	Width      float64 // 区域宽度，默认 600
	Height     float64 // 区域高度，默认 600
	Threshold  float64 // 邻居距离阈值，默认 150
	Seed       int64   // 随机种子，默认 1
	LogLevel   string  // 日志级别，默认 "info"
	ConfigPath string  // 配置文件路径，其余字段覆盖文件中的值

	GRPCAddr    string // Serve 监听地址，默认 ":5001"
	MetricsAddr string // /metrics 监听地址，默认 ":9090"
}

// Position 自定义节点位置
type Position struct {
	X, Y float64
}

// New 创建并初始化一次仿真
// 示例：
//
//	sim, err := georoute.New(georoute.Config{Nodes: 20, Threshold: 150})
func New(cfg Config) (*Simulation, error) {
	rc, err := runtimeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return start(route.NewSimulator(rc))
}

// NewWithPositions 使用给定位置创建仿真，节点 ID 依次为 0..n-1
// 性能属性取各自范围的中值
func NewWithPositions(cfg Config, positions []Position) (*Simulation, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("positions: %w", route.ErrInvalidNodeCount)
	}
	cfg.Nodes = len(positions)
	rc, err := runtimeConfig(cfg)
	if err != nil {
		return nil, err
	}

	nodes := make([]*route.Node, len(positions))
	for i, p := range positions {
		nodes[i] = route.NewNode(i, orb.Point{p.X, p.Y},
			(route.MinSpeed+route.MaxSpeed)/2,
			(route.MinLatency+route.MaxLatency)/2,
			(route.MinReliability+route.MaxReliability)/2,
		)
	}
	topology, err := route.NewTopology(nodes, rc.Builder().Bounds())
	if err != nil {
		return nil, err
	}
	return start(route.NewSimulator(rc).WithTopology(topology))
}

func runtimeConfig(cfg Config) (*route.Config, error) {
	rc, err := route.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Nodes > 0 {
		rc.Topology.NodeCount = cfg.Nodes
	}
	if cfg.Width > 0 {
		rc.Topology.Width = cfg.Width
	}
	if cfg.Height > 0 {
		rc.Topology.Height = cfg.Height
	}
	if cfg.Threshold != 0 {
		rc.Topology.Threshold = cfg.Threshold
	}
	if cfg.Seed != 0 {
		rc.Topology.Seed = cfg.Seed
	}
	if cfg.LogLevel != "" {
		rc.Log.Level = cfg.LogLevel
	}
	if cfg.GRPCAddr != "" {
		rc.Server.GRPCAddr = cfg.GRPCAddr
	}
	if cfg.MetricsAddr != "" {
		rc.Server.MetricsAddr = cfg.MetricsAddr
	}
	return rc, nil
}

func start(sim *route.Simulator) (*Simulation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sim.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize simulation: %w", err)
	}
	return &Simulation{sim: sim}, nil
}

// Route 计算两个节点之间的贪婪路由
// 路由失败（无邻居、局部最小、环路）通过 RouteResult 返回，不是错误
func (s *Simulation) Route(source, destination int) (RouteResult, error) {
	return s.sim.Manager().Route(source, destination)
}

// RouteWithObserver 计算路由并逐跳通知 observer
func (s *Simulation) RouteWithObserver(source, destination int, observer HopObserver) (RouteResult, error) {
	return s.sim.Manager().RouteWithObserver(source, destination, observer)
}

// RouteFarthest 在距离最远的两个节点之间路由
func (s *Simulation) RouteFarthest() (RouteResult, error) {
	return s.sim.RouteFarthest()
}

// SetThreshold 修改邻居阈值并重新计算邻居集合
func (s *Simulation) SetThreshold(ctx context.Context, threshold float64) error {
	return s.sim.Manager().Recompute(ctx, threshold)
}

// Survey 源节点到其他所有节点的送达比例
func (s *Simulation) Survey(ctx context.Context, source int) (float64, error) {
	table, err := s.sim.Manager().Survey(ctx, source)
	if err != nil {
		return 0, err
	}
	return table.DeliveryRatio(), nil
}

// RunFlows 并发路由 n 个随机源/目的对
func (s *Simulation) RunFlows(ctx context.Context, n int) (Stats, error) {
	return s.sim.RunFlows(ctx, n)
}

// Topology 拓扑的文本描述
func (s *Simulation) Topology() string {
	return s.sim.Topology().String()
}

// Serve 启动 gRPC 路由服务和指标服务，返回 gRPC 实际监听地址
// 客户端通过 Dial 连接
func (s *Simulation) Serve() (string, error) {
	if err := s.sim.Start(); err != nil {
		return "", err
	}
	return s.sim.GRPCAddr().String(), nil
}

// Stop 结束仿真
func (s *Simulation) Stop() {
	s.sim.Stop()
}
