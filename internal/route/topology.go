package route

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/paulmach/orb"
)

// Topology 一次仿真运行的节点表
// 节点按 ID 下标存放，位置在运行期间不变；邻居关系只以 ID 列表保存在节点上，
// 由 ComputeNeighbors 统一重算
type Topology struct {
	mtx    sync.RWMutex
	nodes  []*Node
	bounds orb.Bound

	threshold  float64
	generation uint64
	computed   bool
}

// NewTopology 用给定节点创建拓扑，节点 ID 必须是 0..n-1
func NewTopology(nodes []*Node, bounds orb.Bound) (*Topology, error) {
	table := make([]*Node, len(nodes))
	for _, node := range nodes {
		if node == nil || node.ID < 0 || node.ID >= len(nodes) || table[node.ID] != nil {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidNodeID, node)
		}
		table[node.ID] = node
	}

	return &Topology{
		nodes:  table,
		bounds: bounds,
	}, nil
}

// Node 按 ID 获取节点
func (t *Topology) Node(id int) (*Node, error) {
	if id < 0 || id >= len(t.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return t.nodes[id], nil
}

// Nodes 返回节点表的副本（按 ID 排序）
func (t *Topology) Nodes() []*Node {
	nodes := make([]*Node, len(t.nodes))
	copy(nodes, t.nodes)
	return nodes
}

func (t *Topology) Len() int {
	return len(t.nodes)
}

func (t *Topology) Bounds() orb.Bound {
	return t.bounds
}

// Neighbors 获取一个节点的邻居
func (t *Topology) Neighbors(id int) ([]*Node, error) {
	node, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	return t.neighborNodes(node), nil
}

// NeighborIDs 一个节点的邻居 ID（升序），与邻居重算互斥
func (t *Topology) NeighborIDs(id int) ([]int, error) {
	node, err := t.Node(id)
	if err != nil {
		return nil, err
	}

	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return node.neighborIDs(), nil
}

// Degrees 每个节点的邻居数量，按 ID 排列
func (t *Topology) Degrees() []int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	degrees := make([]int, len(t.nodes))
	for i, node := range t.nodes {
		degrees[i] = len(node.neighbors)
	}
	return degrees
}

func (t *Topology) neighborNodes(node *Node) []*Node {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	neighbors := make([]*Node, 0, len(node.neighbors))
	for _, id := range node.neighbors {
		if id >= 0 && id < len(t.nodes) {
			neighbors = append(neighbors, t.nodes[id])
		}
	}
	return neighbors
}

// ComputeNeighbors 重新计算每个节点的邻居集合
// 所有节点读取同一份位置快照，按节点并行计算；结果全部算完后一次性写回。
// 非正阈值得到全空的邻居集合。ctx 只在节点之间检查
func (t *Topology) ComputeNeighbors(ctx context.Context, threshold float64, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	index := NewNeighborIndex(t.nodes)
	results := make([][]int, len(t.nodes))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = index.Within(t.nodes[i], threshold)
			}
		}()
	}

	var err error
feed:
	for i := range t.nodes {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("neighbor computation interrupted: %w", err)
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()
	for i, node := range t.nodes {
		node.neighbors = results[i]
	}
	t.threshold = threshold
	t.generation++
	t.computed = true
	return nil
}

// describe 节点表的对外描述，在读锁内复制邻居列表
func (t *Topology) describe() []NodeInfo {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	infos := make([]NodeInfo, len(t.nodes))
	for i, node := range t.nodes {
		infos[i] = newNodeInfo(node)
	}
	return infos
}

// Threshold 最近一次计算邻居使用的阈值
func (t *Topology) Threshold() float64 {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.threshold
}

// Generation 邻居关系的版本号，每次重算加一
func (t *Topology) Generation() uint64 {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.generation
}

func (t *Topology) NeighborsComputed() bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.computed
}

// LinkCount 无向链路数量
func (t *Topology) LinkCount() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	links := 0
	for _, node := range t.nodes {
		for _, id := range node.neighbors {
			if node.ID < id {
				links++
			}
		}
	}
	return links
}

func (t *Topology) String() string {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Topology (threshold=%.1f):\n", t.threshold)
	b.WriteString("Nodes:\n")
	for _, node := range t.nodes {
		fmt.Fprintf(&b, "  %d: (%.1f, %.1f) speed=%.2f latency=%.2f reliability=%.2f efficiency=%.2f\n",
			node.ID, node.Position.X(), node.Position.Y(),
			node.Speed, node.Latency, node.Reliability, node.Efficiency)
	}

	b.WriteString("Links:\n")
	for _, node := range t.nodes {
		for _, id := range node.neighbors {
			// 无向图，每条链路只打印一次
			if node.ID < id {
				fmt.Fprintf(&b, "  %d-%d: distance=%.2f\n", node.ID, id, node.DistanceTo(t.nodes[id]))
			}
		}
	}
	return b.String()
}
