package route

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// RouteClient 路由服务客户端
type RouteClient struct {
	conn *grpc.ClientConn
}

// DialRouteService 连接到路由服务
func DialRouteService(addr string, opts ...grpc.DialOption) (*RouteClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(JSONCodecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &RouteClient{conn: conn}, nil
}

func (c *RouteClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+routeServiceName+"/"+method, in, out)
}

func (c *RouteClient) Ping(ctx context.Context, msg string) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, "Ping", &PingRequest{Msg: msg}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouteClient) Route(ctx context.Context, source, destination int) (*RouteResponse, error) {
	out := new(RouteResponse)
	if err := c.invoke(ctx, "Route", &RouteRequest{Source: source, Destination: destination}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamRoute 流式路由，每收到一跳调用一次 onHop，返回最终结果
func (c *RouteClient) StreamRoute(ctx context.Context, source, destination int, onHop func(*HopMessage)) (*RouteResponse, error) {
	desc := &RouteServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(ctx, desc, "/"+routeServiceName+"/"+desc.StreamName)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&RouteRequest{Source: source, Destination: destination}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var result *RouteResponse
	for {
		msg := new(StreamRouteResponse)
		err := stream.RecvMsg(msg)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if msg.Hop != nil && onHop != nil {
			onHop(msg.Hop)
		}
		if msg.Result != nil {
			result = msg.Result
		}
	}

	if result == nil {
		return nil, fmt.Errorf("stream ended without a route result")
	}
	return result, nil
}

func (c *RouteClient) Topology(ctx context.Context) (*TopologyResponse, error) {
	out := new(TopologyResponse)
	if err := c.invoke(ctx, "Topology", &TopologyRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouteClient) SetThreshold(ctx context.Context, threshold float64) (*ThresholdResponse, error) {
	out := new(ThresholdResponse)
	if err := c.invoke(ctx, "SetThreshold", &ThresholdRequest{Threshold: threshold}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouteClient) Survey(ctx context.Context, source int) (*SurveyResponse, error) {
	out := new(SurveyResponse)
	if err := c.invoke(ctx, "Survey", &SurveyRequest{Source: source}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouteClient) Close() error {
	return c.conn.Close()
}
