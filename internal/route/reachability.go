package route

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Reachability 从源节点到某个目的地的贪婪路由结果摘要
type Reachability struct {
	Destination int
	Outcome     Outcome
	Reason      FailureReason
	NextHop     int // 没有转发时为 -1
	Hops        int
	Path        []int
}

// ReachabilityTable 一个源节点到所有目的地的可达性
type ReachabilityTable struct {
	mtx     sync.RWMutex
	source  int
	entries map[int]*Reachability
}

// NewReachabilityTable 创建可达性表
// 参数：
//   - source: 源节点 ID
func NewReachabilityTable(source int) *ReachabilityTable {
	return &ReachabilityTable{
		source:  source,
		entries: make(map[int]*Reachability),
	}
}

func (rt *ReachabilityTable) Source() int {
	return rt.source
}

// Add 记录一次路由结果
func (rt *ReachabilityTable) Add(result RouteResult) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	rt.entries[result.Destination] = &Reachability{
		Destination: result.Destination,
		Outcome:     result.Outcome,
		Reason:      result.Reason,
		NextHop:     result.NextHop(),
		Hops:        result.HopCount(),
		Path:        result.PathIDs(),
	}
}

// Get 获取到某个目的地的记录
func (rt *ReachabilityTable) Get(destination int) (*Reachability, error) {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	entry, ok := rt.entries[destination]
	if !ok {
		return nil, fmt.Errorf("destination %d not surveyed", destination)
	}
	return entry, nil
}

// NextHop 获取到某个目的地的下一跳
func (rt *ReachabilityTable) NextHop(destination int) (int, error) {
	entry, err := rt.Get(destination)
	if err != nil {
		return -1, err
	}
	if entry.NextHop < 0 {
		return -1, fmt.Errorf("destination %d unreachable: %s", destination, entry.Reason)
	}
	return entry.NextHop, nil
}

// All 所有记录（按目的地 ID 排序）
func (rt *ReachabilityTable) All() []*Reachability {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	entries := make([]*Reachability, 0, len(rt.entries))
	for _, entry := range rt.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Destination < entries[j].Destination
	})
	return entries
}

func (rt *ReachabilityTable) Size() int {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()
	return len(rt.entries)
}

// DeliveryRatio 可送达目的地所占比例，空表为 0
func (rt *ReachabilityTable) DeliveryRatio() float64 {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	if len(rt.entries) == 0 {
		return 0
	}
	delivered := 0
	for _, entry := range rt.entries {
		if entry.Outcome == OutcomeDelivered {
			delivered++
		}
	}
	return float64(delivered) / float64(len(rt.entries))
}

// String 表格形式，例如：
//
//	Reachability from node 0:
//	Destination  NextHop  Hops  Status
//	1            1        1     delivered
//	2            -        0     no-neighbors
func (rt *ReachabilityTable) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reachability from node %d:\n", rt.source)
	fmt.Fprintf(&b, "%-12s %-8s %-5s %s\n", "Destination", "NextHop", "Hops", "Status")
	for _, entry := range rt.All() {
		nextHop := "-"
		if entry.NextHop >= 0 {
			nextHop = fmt.Sprint(entry.NextHop)
		}
		status := entry.Outcome.String()
		if entry.Outcome == OutcomeFailed {
			status = entry.Reason.String()
		}
		fmt.Fprintf(&b, "%-12d %-8s %-5d %s\n", entry.Destination, nextHop, entry.Hops, status)
	}
	return b.String()
}
