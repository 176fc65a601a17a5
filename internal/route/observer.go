package route

import (
	"context"

	"github.com/rs/zerolog"
)

// HopObserver 接收路由过程中产生的每一跳
// 回调在路由计算的 goroutine 中同步执行，实现方不应阻塞
type HopObserver interface {
	OnHop(hop Hop)
}

type HopObserverFunc func(hop Hop)

func (f HopObserverFunc) OnHop(hop Hop) {
	f(hop)
}

// MultiObserver 依次通知多个观察者
type MultiObserver []HopObserver

func (m MultiObserver) OnHop(hop Hop) {
	for _, o := range m {
		if o != nil {
			o.OnHop(hop)
		}
	}
}

// ChannelObserver 把每一跳发送到通道，由调用方在其他 goroutine 消费
// ctx 结束后不再发送
type ChannelObserver struct {
	ctx context.Context
	ch  chan<- Hop
}

func NewChannelObserver(ctx context.Context, ch chan<- Hop) *ChannelObserver {
	return &ChannelObserver{ctx: ctx, ch: ch}
}

func (c *ChannelObserver) OnHop(hop Hop) {
	select {
	case <-c.ctx.Done():
	case c.ch <- hop:
	}
}

// LogObserver 以 debug 级别记录每一跳以及发送节点的性能指标
type LogObserver struct {
	logger zerolog.Logger
}

func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) OnHop(hop Hop) {
	l.logger.Debug().
		Int("seq", hop.Seq).
		Int("from", hop.From.ID).
		Int("to", hop.To.ID).
		Float64("remaining", hop.Remaining).
		Float64("speed", hop.From.Speed).
		Float64("latency_ms", hop.From.Latency).
		Float64("reliability", hop.From.Reliability).
		Float64("efficiency", hop.From.Efficiency).
		Msg("hop")
}
