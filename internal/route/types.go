package route

import (
	"fmt"
	"slices"
	"strings"
)

// Outcome 一次路由的最终状态
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// FailureReason 路由失败原因，是正常的路由结果而不是错误
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonNoNeighbors
	ReasonLocalMinimum // 有邻居但没有更接近目的地的邻居（路由空洞）
	ReasonLoopDetected
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoNeighbors:
		return "no-neighbors"
	case ReasonLocalMinimum:
		return "local-minimum"
	case ReasonLoopDetected:
		return "loop-detected"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Hop 一跳转发事件
type Hop struct {
	Seq       int     // 从 1 开始
	From      *Node
	To        *Node
	Remaining float64 // To 到目的地的距离
	Progress  float64 // 本跳缩短的到目的地距离，恒为正
}

func (h Hop) String() string {
	return fmt.Sprintf("#%d %d->%d remaining=%.2f", h.Seq, h.From.ID, h.To.ID, h.Remaining)
}

// RouteResult 一次路由计算的结果
// Path 从源节点开始；失败时停在无法继续转发的节点
type RouteResult struct {
	Source      int
	Destination int
	Outcome     Outcome
	Reason      FailureReason
	Path        []*Node
	Hops        []Hop
}

// clone 复制 Path 和 Hops，调用方之间不共享底层数组
func (r RouteResult) clone() RouteResult {
	r.Path = slices.Clone(r.Path)
	r.Hops = slices.Clone(r.Hops)
	return r
}

func (r RouteResult) Delivered() bool {
	return r.Outcome == OutcomeDelivered
}

func (r RouteResult) HopCount() int {
	return len(r.Hops)
}

// PathIDs 路径上的节点 ID
func (r RouteResult) PathIDs() []int {
	ids := make([]int, len(r.Path))
	for i, node := range r.Path {
		ids[i] = node.ID
	}
	return ids
}

// NextHop 源节点的下一跳，没有则返回 -1
func (r RouteResult) NextHop() int {
	if len(r.Hops) == 0 {
		return -1
	}
	return r.Hops[0].To.ID
}

// Status 合并结果与原因的标签，用于日志和指标
func (r RouteResult) Status() string {
	if r.Delivered() {
		return r.Outcome.String()
	}
	return r.Reason.String()
}

func (r RouteResult) String() string {
	parts := make([]string, len(r.Path))
	for i, node := range r.Path {
		parts[i] = fmt.Sprint(node.ID)
	}
	return fmt.Sprintf("%d->%d %s [%s]", r.Source, r.Destination, r.Status(), strings.Join(parts, " "))
}
