package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const routeServiceName = "georoute.RouteService"

// RouteServiceServer 路由服务接口
type RouteServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Route(context.Context, *RouteRequest) (*RouteResponse, error)
	StreamRoute(*RouteRequest, grpc.ServerStream) error
	Topology(context.Context, *TopologyRequest) (*TopologyResponse, error)
	SetThreshold(context.Context, *ThresholdRequest) (*ThresholdResponse, error)
	Survey(context.Context, *SurveyRequest) (*SurveyResponse, error)
}

func unaryHandler[Req any, Resp any](method string, call func(RouteServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RouteServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + routeServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RouteServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamRouteHandler(srv any, stream grpc.ServerStream) error {
	in := new(RouteRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(RouteServiceServer).StreamRoute(in, stream)
}

// RouteServiceDesc 手写的服务描述，消息使用 JSON 编码
var RouteServiceDesc = grpc.ServiceDesc{
	ServiceName: routeServiceName,
	HandlerType: (*RouteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unaryHandler("Ping", RouteServiceServer.Ping)},
		{MethodName: "Route", Handler: unaryHandler("Route", RouteServiceServer.Route)},
		{MethodName: "Topology", Handler: unaryHandler("Topology", RouteServiceServer.Topology)},
		{MethodName: "SetThreshold", Handler: unaryHandler("SetThreshold", RouteServiceServer.SetThreshold)},
		{MethodName: "Survey", Handler: unaryHandler("Survey", RouteServiceServer.Survey)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamRoute", Handler: streamRouteHandler, ServerStreams: true},
	},
	Metadata: "georoute/route.json",
}

// RegisterRouteServiceServer 注册路由服务
func RegisterRouteServiceServer(s grpc.ServiceRegistrar, srv RouteServiceServer) {
	s.RegisterService(&RouteServiceDesc, srv)
}

// RouteServer 实现 gRPC 路由服务
type RouteServer struct {
	RunID   string
	Manager *RouteManager
	logger  zerolog.Logger
}

func NewRouteServer(runID string, manager *RouteManager, logger zerolog.Logger) *RouteServer {
	return &RouteServer{
		RunID:   runID,
		Manager: manager,
		logger:  logger.With().Str("component", "grpc").Logger(),
	}
}

// toStatus 把引擎错误映射为 gRPC 状态码
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrUnknownNode):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidThreshold):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNeighborsNotComputed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}

func (s *RouteServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {
	return &PingResponse{Msg: fmt.Sprintf("pong from %s", s.RunID)}, nil
}

func (s *RouteServer) Route(ctx context.Context, req *RouteRequest) (*RouteResponse, error) {
	result, err := s.Manager.Route(req.Source, req.Destination)
	if err != nil {
		s.logger.Warn().Err(err).Int("source", req.Source).Int("destination", req.Destination).Msg("route request rejected")
		return nil, toStatus(err)
	}
	return newRouteResponse(result), nil
}

// StreamRoute 逐跳推送路由过程
// 路由在单独的 goroutine 中计算，每一跳经通道交给发送循环，网络写不在路由循环内发生
func (s *RouteServer) StreamRoute(req *RouteRequest, stream grpc.ServerStream) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	hops := make(chan Hop, 16)
	var (
		result   RouteResult
		routeErr error
	)
	go func() {
		defer close(hops)
		result, routeErr = s.Manager.RouteWithObserver(req.Source, req.Destination, NewChannelObserver(ctx, hops))
	}()

	var sendErr error
	for hop := range hops {
		if sendErr != nil {
			continue
		}
		if err := stream.SendMsg(&StreamRouteResponse{Hop: newHopMessage(hop)}); err != nil {
			sendErr = err
			cancel()
		}
	}

	if routeErr != nil {
		return toStatus(routeErr)
	}
	if sendErr != nil {
		return sendErr
	}
	return stream.SendMsg(&StreamRouteResponse{Result: newRouteResponse(result)})
}

func (s *RouteServer) Topology(ctx context.Context, req *TopologyRequest) (*TopologyResponse, error) {
	topology := s.Manager.Topology()
	return &TopologyResponse{
		RunID:      s.RunID,
		Threshold:  topology.Threshold(),
		Generation: topology.Generation(),
		Links:      topology.LinkCount(),
		Nodes:      topology.describe(),
	}, nil
}

func (s *RouteServer) SetThreshold(ctx context.Context, req *ThresholdRequest) (*ThresholdResponse, error) {
	s.logger.Info().Float64("threshold", req.Threshold).Msg("threshold change requested")
	if err := s.Manager.Recompute(ctx, req.Threshold); err != nil {
		return nil, toStatus(err)
	}

	topology := s.Manager.Topology()
	return &ThresholdResponse{
		Threshold:  topology.Threshold(),
		Generation: topology.Generation(),
		Links:      topology.LinkCount(),
	}, nil
}

func (s *RouteServer) Survey(ctx context.Context, req *SurveyRequest) (*SurveyResponse, error) {
	table, err := s.Manager.Survey(ctx, req.Source)
	if err != nil {
		return nil, toStatus(err)
	}
	return newSurveyResponse(table), nil
}
