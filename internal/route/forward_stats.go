package route

import (
	"sync"

	"github.com/rs/zerolog"
)

// ForwardStats 路由统计
type ForwardStats struct {
	RoutesAttempted int64
	RoutesDelivered int64
	NoNeighbors     int64
	LocalMinimum    int64
	LoopDetected    int64
	HopsForwarded   int64
}

// DeliveryRatio 送达比例，没有路由时为 0
func (s ForwardStats) DeliveryRatio() float64 {
	if s.RoutesAttempted == 0 {
		return 0
	}
	return float64(s.RoutesDelivered) / float64(s.RoutesAttempted)
}

func (s ForwardStats) Failed() int64 {
	return s.NoNeighbors + s.LocalMinimum + s.LoopDetected
}

// Merge 合并另一份统计
func (s ForwardStats) Merge(other ForwardStats) ForwardStats {
	return ForwardStats{
		RoutesAttempted: s.RoutesAttempted + other.RoutesAttempted,
		RoutesDelivered: s.RoutesDelivered + other.RoutesDelivered,
		NoNeighbors:     s.NoNeighbors + other.NoNeighbors,
		LocalMinimum:    s.LocalMinimum + other.LocalMinimum,
		LoopDetected:    s.LoopDetected + other.LoopDetected,
		HopsForwarded:   s.HopsForwarded + other.HopsForwarded,
	}
}

// LogStats 打印统计信息
func (s ForwardStats) LogStats(logger zerolog.Logger) {
	logger.Info().
		Int64("attempted", s.RoutesAttempted).
		Int64("delivered", s.RoutesDelivered).
		Int64("no_neighbors", s.NoNeighbors).
		Int64("local_minimum", s.LocalMinimum).
		Int64("loop_detected", s.LoopDetected).
		Int64("hops", s.HopsForwarded).
		Float64("delivery_ratio", s.DeliveryRatio()).
		Msg("forward statistics")
}

// statsRecorder 并发安全的统计累加器
type statsRecorder struct {
	mtx   sync.Mutex
	stats ForwardStats
}

func (r *statsRecorder) record(result RouteResult) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.stats.RoutesAttempted++
	r.stats.HopsForwarded += int64(result.HopCount())
	if result.Delivered() {
		r.stats.RoutesDelivered++
		return
	}
	switch result.Reason {
	case ReasonNoNeighbors:
		r.stats.NoNeighbors++
	case ReasonLocalMinimum:
		r.stats.LocalMinimum++
	case ReasonLoopDetected:
		r.stats.LoopDetected++
	}
}

func (r *statsRecorder) snapshot() ForwardStats {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.stats
}
