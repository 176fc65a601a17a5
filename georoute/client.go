package georoute

import (
	"context"

	"georoute/internal/route"
)

// 路由服务的 gRPC 消息
type (
	HopMessage       = route.HopMessage
	RouteResponse    = route.RouteResponse
	TopologyResponse = route.TopologyResponse
	SurveyResponse   = route.SurveyResponse
)

// Client 连接到运行中的 georoute 服务（georoute -serve）
type Client struct {
	rc *route.RouteClient
}

// Dial 连接到路由服务，addr 形如 "127.0.0.1:5001"
func Dial(addr string) (*Client, error) {
	rc, err := route.DialRouteService(addr)
	if err != nil {
		return nil, err
	}
	return &Client{rc: rc}, nil
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.rc.Ping(ctx, "ping")
	if err != nil {
		return "", err
	}
	return resp.Msg, nil
}

// Route 在服务端计算一次路由
func (c *Client) Route(ctx context.Context, source, destination int) (*RouteResponse, error) {
	return c.rc.Route(ctx, source, destination)
}

// StreamRoute 流式路由，每收到一跳调用一次 onHop
func (c *Client) StreamRoute(ctx context.Context, source, destination int, onHop func(*HopMessage)) (*RouteResponse, error) {
	return c.rc.StreamRoute(ctx, source, destination, onHop)
}

func (c *Client) Topology(ctx context.Context) (*TopologyResponse, error) {
	return c.rc.Topology(ctx)
}

// SetThreshold 修改服务端的邻居阈值
func (c *Client) SetThreshold(ctx context.Context, threshold float64) error {
	_, err := c.rc.SetThreshold(ctx, threshold)
	return err
}

func (c *Client) Survey(ctx context.Context, source int) (*SurveyResponse, error) {
	return c.rc.Survey(ctx, source)
}

func (c *Client) Close() error {
	return c.rc.Close()
}
