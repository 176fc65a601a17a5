package route

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 节点性能属性的取值范围
const (
	MinSpeed       = 1.0
	MaxSpeed       = 5.0
	MinLatency     = 10.0
	MaxLatency     = 100.0
	MinReliability = 0.7
	MaxReliability = 1.0
)

// Node 移动自组网中的一个节点（车辆）
// 身份、位置和性能属性在创建后不可变；邻居集合是由 NeighborIndex 重新计算的派生视图，
// 只保存节点 ID，通过 Topology 解析，不表示对其他节点的所有权
type Node struct {
	ID       int
	Position orb.Point

	Speed       float64 // 单位/秒
	Latency     float64 // 毫秒，仅供参考，不参与路由决策
	Reliability float64 // 0.7 ~ 1.0，仅供参考
	Efficiency  float64 // Speed * Reliability

	neighbors []int
}

// NewNode 创建节点，网络效率在创建时计算一次
func NewNode(id int, position orb.Point, speed, latency, reliability float64) *Node {
	return &Node{
		ID:          id,
		Position:    position,
		Speed:       speed,
		Latency:     latency,
		Reliability: reliability,
		Efficiency:  speed * reliability,
	}
}

// DistanceTo 到另一个节点的欧氏距离
func (n *Node) DistanceTo(other *Node) float64 {
	return planar.Distance(n.Position, other.Position)
}

// neighborIDs 邻居 ID 的副本（按 ID 升序），调用方需持有 Topology 的锁
func (n *Node) neighborIDs() []int {
	ids := make([]int, len(n.neighbors))
	copy(ids, n.neighbors)
	return ids
}

func (n *Node) String() string {
	return fmt.Sprintf("node-%d(%.1f,%.1f)", n.ID, n.Position.X(), n.Position.Y())
}
