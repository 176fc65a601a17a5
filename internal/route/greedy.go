package route

import (
	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/utils"
)

// GreedyRouter 贪婪地理路由
// 每一跳只根据位置选择离目的地最近且严格更近的邻居，不维护路由表。
// 路由器本身无状态，可以被多个 goroutine 同时调用；拓扑在调用期间只读
type GreedyRouter struct {
	topology *Topology
}

// NewGreedyRouter 创建贪婪路由器
func NewGreedyRouter(topology *Topology) *GreedyRouter {
	return &GreedyRouter{topology: topology}
}

// routeAttempt 单次路由调用的临时状态，调用结束即丢弃
type routeAttempt struct {
	visited *hashset.Set
	result  RouteResult
}

func newRouteAttempt(source, destination *Node) *routeAttempt {
	return &routeAttempt{
		visited: hashset.New(),
		result: RouteResult{
			Source:      source.ID,
			Destination: destination.ID,
			Path:        []*Node{source},
		},
	}
}

func (a *routeAttempt) deliver() RouteResult {
	a.result.Outcome = OutcomeDelivered
	a.result.Reason = ReasonNone
	return a.result
}

func (a *routeAttempt) fail(reason FailureReason) RouteResult {
	a.result.Outcome = OutcomeFailed
	a.result.Reason = reason
	return a.result
}

// candidate 满足前进条件的邻居
type candidate struct {
	node     *Node
	distance float64
}

// 按到目的地距离升序，距离相同取 ID 较小者
func byDistanceThenID(a, b interface{}) int {
	ca, cb := a.(candidate), b.(candidate)
	if c := utils.Float64Comparator(ca.distance, cb.distance); c != 0 {
		return c
	}
	return utils.IntComparator(ca.node.ID, cb.node.ID)
}

// Route 计算从 source 到 destination 的逐跳路径
func (r *GreedyRouter) Route(source, destination *Node) RouteResult {
	return r.RouteWithObserver(source, destination, nil)
}

// RouteWithObserver 计算路径，并在每一跳确定时通知 observer
// 返回值总是 DELIVERED 或带原因的 FAILED，不会返回错误。
// 源节点等于目的地时没有严格更近的邻居，结果为 NoNeighbors 或 LocalMinimum
func (r *GreedyRouter) RouteWithObserver(source, destination *Node, observer HopObserver) RouteResult {
	return r.run(newRouteAttempt(source, destination), source, destination, observer)
}

// run 状态机主循环：ROUTING(current, visited) -> DELIVERED | FAILED(reason)
// 每一跳到目的地的距离严格减小，最多 N-1 跳
func (r *GreedyRouter) run(attempt *routeAttempt, current, destination *Node, observer HopObserver) RouteResult {
	for {
		if attempt.visited.Contains(current.ID) {
			return attempt.fail(ReasonLoopDetected)
		}
		attempt.visited.Add(current.ID)

		neighbors := r.topology.neighborNodes(current)
		if len(neighbors) == 0 {
			return attempt.fail(ReasonNoNeighbors)
		}

		currentDistance := current.DistanceTo(destination)
		next, ok := closestEligible(neighbors, destination, currentDistance)
		if !ok {
			return attempt.fail(ReasonLocalMinimum)
		}

		hop := Hop{
			Seq:       len(attempt.result.Hops) + 1,
			From:      current,
			To:        next.node,
			Remaining: next.distance,
			Progress:  currentDistance - next.distance,
		}
		attempt.result.Hops = append(attempt.result.Hops, hop)
		attempt.result.Path = append(attempt.result.Path, next.node)
		if observer != nil {
			observer.OnHop(hop)
		}

		if next.node.ID == destination.ID {
			return attempt.deliver()
		}
		current = next.node
	}
}

// closestEligible 在严格更接近目的地的邻居中选出最近的一个
func closestEligible(neighbors []*Node, destination *Node, currentDistance float64) (candidate, bool) {
	pq := priorityqueue.NewWith(byDistanceThenID)
	for _, n := range neighbors {
		if d := n.DistanceTo(destination); d < currentDistance {
			pq.Enqueue(candidate{node: n, distance: d})
		}
	}

	best, ok := pq.Dequeue()
	if !ok {
		return candidate{}, false
	}
	return best.(candidate), true
}
