package route

// gRPC 消息，使用 JSON 编码

type PingRequest struct {
	Msg string `json:"msg"`
}

type PingResponse struct {
	Msg string `json:"msg"`
}

type RouteRequest struct {
	Source      int `json:"source"`
	Destination int `json:"destination"`
}

type HopMessage struct {
	Seq       int     `json:"seq"`
	From      int     `json:"from"`
	To        int     `json:"to"`
	Remaining float64 `json:"remaining"`
	Progress  float64 `json:"progress"`
}

type RouteResponse struct {
	Source      int          `json:"source"`
	Destination int          `json:"destination"`
	Outcome     string       `json:"outcome"`
	Reason      string       `json:"reason,omitempty"`
	Path        []int        `json:"path"`
	Hops        []HopMessage `json:"hops"`
}

func (r *RouteResponse) Delivered() bool {
	return r.Outcome == OutcomeDelivered.String()
}

// StreamRouteResponse 流式路由消息，先逐跳发送 Hop，最后发送一次 Result
type StreamRouteResponse struct {
	Hop    *HopMessage    `json:"hop,omitempty"`
	Result *RouteResponse `json:"result,omitempty"`
}

type TopologyRequest struct{}

// NodeInfo 节点的对外描述
type NodeInfo struct {
	ID          int     `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Speed       float64 `json:"speed"`
	Latency     float64 `json:"latency"`
	Reliability float64 `json:"reliability"`
	Efficiency  float64 `json:"efficiency"`
	Neighbors   []int   `json:"neighbors"`
}

type TopologyResponse struct {
	RunID      string     `json:"run_id"`
	Threshold  float64    `json:"threshold"`
	Generation uint64     `json:"generation"`
	Links      int        `json:"links"`
	Nodes      []NodeInfo `json:"nodes"`
}

type ThresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

type ThresholdResponse struct {
	Threshold  float64 `json:"threshold"`
	Generation uint64  `json:"generation"`
	Links      int     `json:"links"`
}

type SurveyRequest struct {
	Source int `json:"source"`
}

type SurveyEntry struct {
	Destination int    `json:"destination"`
	Status      string `json:"status"`
	NextHop     int    `json:"next_hop"`
	Hops        int    `json:"hops"`
}

type SurveyResponse struct {
	Source        int           `json:"source"`
	DeliveryRatio float64       `json:"delivery_ratio"`
	Entries       []SurveyEntry `json:"entries"`
}

func newHopMessage(hop Hop) *HopMessage {
	return &HopMessage{
		Seq:       hop.Seq,
		From:      hop.From.ID,
		To:        hop.To.ID,
		Remaining: hop.Remaining,
		Progress:  hop.Progress,
	}
}

func newRouteResponse(result RouteResult) *RouteResponse {
	resp := &RouteResponse{
		Source:      result.Source,
		Destination: result.Destination,
		Outcome:     result.Outcome.String(),
		Path:        result.PathIDs(),
		Hops:        make([]HopMessage, 0, len(result.Hops)),
	}
	if !result.Delivered() {
		resp.Reason = result.Reason.String()
	}
	for _, hop := range result.Hops {
		resp.Hops = append(resp.Hops, *newHopMessage(hop))
	}
	return resp
}

// newNodeInfo 调用方需持有 Topology 的读锁
func newNodeInfo(node *Node) NodeInfo {
	return NodeInfo{
		ID:          node.ID,
		X:           node.Position.X(),
		Y:           node.Position.Y(),
		Speed:       node.Speed,
		Latency:     node.Latency,
		Reliability: node.Reliability,
		Efficiency:  node.Efficiency,
		Neighbors:   node.neighborIDs(),
	}
}

func newSurveyResponse(table *ReachabilityTable) *SurveyResponse {
	resp := &SurveyResponse{
		Source:        table.Source(),
		DeliveryRatio: table.DeliveryRatio(),
	}
	for _, entry := range table.All() {
		status := entry.Outcome.String()
		if entry.Outcome == OutcomeFailed {
			status = entry.Reason.String()
		}
		resp.Entries = append(resp.Entries, SurveyEntry{
			Destination: entry.Destination,
			Status:      status,
			NextHop:     entry.NextHop,
			Hops:        entry.Hops,
		})
	}
	return resp
}
