package route

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
)

// ManagerOptions 路由管理器选项
type ManagerOptions struct {
	CacheSize int // 0 表示不缓存
	Workers   int // 重算邻居时的并发数
	Metrics   *Metrics
	Logger    zerolog.Logger
}

type cacheKey struct {
	generation  uint64
	source      int
	destination int
}

// RouteManager 路由管理器
// 路由计算持有读锁，邻居重算持有写锁，因此一次路由总是看到同一份邻居快照
type RouteManager struct {
	mtx      sync.RWMutex
	topology *Topology
	router   *GreedyRouter
	cache    *lru.Cache
	workers  int
	metrics  *Metrics
	stats    statsRecorder
	logger   zerolog.Logger

	onTopologyChange func(*Topology)
}

// NewRouteManager 创建路由管理器
func NewRouteManager(topology *Topology, opts ManagerOptions) (*RouteManager, error) {
	rm := &RouteManager{
		topology: topology,
		router:   NewGreedyRouter(topology),
		workers:  opts.Workers,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With().Str("component", "route-manager").Logger(),
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create route cache: %w", err)
		}
		rm.cache = cache
	}
	return rm, nil
}

// SetTopologyChangeCallback 设置邻居重算后的回调函数
func (rm *RouteManager) SetTopologyChangeCallback(callback func(*Topology)) {
	rm.mtx.Lock()
	defer rm.mtx.Unlock()
	rm.onTopologyChange = callback
}

func (rm *RouteManager) Topology() *Topology {
	return rm.topology
}

// Recompute 用新阈值重新计算邻居集合，清空缓存
func (rm *RouteManager) Recompute(ctx context.Context, threshold float64) error {
	if !(threshold > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}

	rm.mtx.Lock()
	if err := rm.topology.ComputeNeighbors(ctx, threshold, rm.workers); err != nil {
		rm.mtx.Unlock()
		return fmt.Errorf("failed to recompute neighbors: %w", err)
	}
	if rm.cache != nil {
		rm.cache.Purge()
	}
	rm.metrics.observeRecompute(rm.topology)
	callback := rm.onTopologyChange
	rm.mtx.Unlock()

	rm.logger.Info().
		Float64("threshold", threshold).
		Uint64("generation", rm.topology.Generation()).
		Int("links", rm.topology.LinkCount()).
		Msg("neighbor sets recomputed")

	if callback != nil {
		callback(rm.topology)
	}
	return nil
}

func (rm *RouteManager) resolve(source, destination int) (*Node, *Node, error) {
	if !rm.topology.NeighborsComputed() {
		return nil, nil, ErrNeighborsNotComputed
	}
	src, err := rm.topology.Node(source)
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	dst, err := rm.topology.Node(destination)
	if err != nil {
		return nil, nil, fmt.Errorf("destination: %w", err)
	}
	return src, dst, nil
}

// Route 按 ID 计算路由，结果按邻居版本缓存
// 每次返回缓存结果的副本，调用方可以随意修改
func (rm *RouteManager) Route(source, destination int) (RouteResult, error) {
	src, dst, err := rm.resolve(source, destination)
	if err != nil {
		return RouteResult{}, err
	}

	rm.mtx.RLock()
	defer rm.mtx.RUnlock()

	key := cacheKey{generation: rm.topology.Generation(), source: source, destination: destination}
	if rm.cache != nil {
		if cached, ok := rm.cache.Get(key); ok {
			rm.metrics.observeCacheHit()
			result := cached.(RouteResult).clone()
			rm.record(result)
			return result, nil
		}
	}

	result := rm.router.Route(src, dst)
	if rm.cache != nil {
		rm.cache.Add(key, result.clone())
	}
	rm.record(result)
	return result, nil
}

// RouteWithObserver 计算路由并把每一跳交给 observer，不经过缓存
func (rm *RouteManager) RouteWithObserver(source, destination int, observer HopObserver) (RouteResult, error) {
	src, dst, err := rm.resolve(source, destination)
	if err != nil {
		return RouteResult{}, err
	}

	rm.mtx.RLock()
	defer rm.mtx.RUnlock()

	result := rm.router.RouteWithObserver(src, dst, observer)
	rm.record(result)
	return result, nil
}

// Survey 计算源节点到其他所有节点的可达性，ctx 在两次路由之间检查
func (rm *RouteManager) Survey(ctx context.Context, source int) (*ReachabilityTable, error) {
	if _, err := rm.topology.Node(source); err != nil {
		return nil, err
	}

	table := NewReachabilityTable(source)
	for _, node := range rm.topology.Nodes() {
		if node.ID == source {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("survey interrupted: %w", err)
		}
		result, err := rm.Route(source, node.ID)
		if err != nil {
			return nil, err
		}
		table.Add(result)
	}

	rm.logger.Debug().
		Int("source", source).
		Float64("delivery_ratio", table.DeliveryRatio()).
		Msg("survey complete")
	return table, nil
}

func (rm *RouteManager) record(result RouteResult) {
	rm.stats.record(result)
	rm.metrics.observeRoute(result)
	rm.logger.Debug().
		Int("source", result.Source).
		Int("destination", result.Destination).
		Str("status", result.Status()).
		Int("hops", result.HopCount()).
		Msg("route computed")
}

// Stats 获取累计统计
func (rm *RouteManager) Stats() ForwardStats {
	return rm.stats.snapshot()
}
