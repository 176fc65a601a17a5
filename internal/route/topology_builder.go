package route

import (
	"fmt"
	"math/rand/v2"

	"github.com/paulmach/orb"
)

const (
	DefaultAreaWidth  = 600.0
	DefaultAreaHeight = 600.0
	DefaultMargin     = 50.0
	DefaultThreshold  = 150.0
)

// TopologyBuilder 生成随机节点布局
type TopologyBuilder struct {
	Width  float64
	Height float64
	Margin float64 // 节点与区域边缘保持的距离
}

// NewTopologyBuilder 创建拓扑生成器，边距使用默认值
func NewTopologyBuilder(width, height float64) *TopologyBuilder {
	return &TopologyBuilder{
		Width:  width,
		Height: height,
		Margin: DefaultMargin,
	}
}

// Bounds 整个区域
func (b *TopologyBuilder) Bounds() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{b.Width, b.Height}}
}

// Placement 节点位置可取的范围（扣除边距）
func (b *TopologyBuilder) Placement() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Margin, b.Margin},
		Max: orb.Point{b.Width - b.Margin, b.Height - b.Margin},
	}
}

func (b *TopologyBuilder) validate(count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidNodeCount, count)
	}
	if b.Margin < 0 || b.Width <= 2*b.Margin || b.Height <= 2*b.Margin {
		return fmt.Errorf("%w: %.1fx%.1f with margin %.1f", ErrInvalidBounds, b.Width, b.Height, b.Margin)
	}
	return nil
}

// Generate 生成 count 个节点，ID 为 0..count-1
// 位置在扣除边距的区域内均匀分布，性能属性在各自范围内均匀分布；相同 seed 结果相同
func (b *TopologyBuilder) Generate(count int, seed int64) ([]*Node, error) {
	if err := b.validate(count); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}

	area := b.Placement()
	nodes := make([]*Node, count)
	for i := range nodes {
		position := orb.Point{
			uniform(area.Min.X(), area.Max.X()),
			uniform(area.Min.Y(), area.Max.Y()),
		}
		nodes[i] = NewNode(i, position,
			uniform(MinSpeed, MaxSpeed),
			uniform(MinLatency, MaxLatency),
			uniform(MinReliability, MaxReliability),
		)
	}
	return nodes, nil
}

// Build 生成节点并包装成拓扑（邻居尚未计算）
func (b *TopologyBuilder) Build(count int, seed int64) (*Topology, error) {
	nodes, err := b.Generate(count, seed)
	if err != nil {
		return nil, err
	}
	return NewTopology(nodes, b.Bounds())
}

// BuildTopology 在 width x height 区域内生成拓扑
func BuildTopology(count int, width, height float64, seed int64) (*Topology, error) {
	return NewTopologyBuilder(width, height).Build(count, seed)
}

// FindFarthestPair 返回距离最远的一对节点
// 距离相同时取 (i, j) 下标字典序最先出现的一对
func FindFarthestPair(nodes []*Node) (*Node, *Node, error) {
	if len(nodes) < 2 {
		return nil, nil, &InsufficientNodesError{Count: len(nodes)}
	}

	best := -1.0
	var from, to *Node
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if d := nodes[i].DistanceTo(nodes[j]); d > best {
				best = d
				from, to = nodes[i], nodes[j]
			}
		}
	}
	return from, to, nil
}
