package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/matchmaking/internal/domain"
)

const ServiceName = "matchmaking.MatchmakingService"

// MatchmakingServer is the server API for MatchmakingService.
type MatchmakingServer interface {
	GetCandidates(context.Context, *GetCandidatesRequest) (*GetCandidatesResponse, error)
	RecordAction(context.Context, *RecordActionRequest) (*domain.ActionResult, error)
	RecordPass(context.Context, *RecordPassRequest) (*domain.ActionResult, error)
	UndoLastAction(context.Context, *UndoLastActionRequest) (*domain.UndoResult, error)
	GetWhoLikedMe(context.Context, *GetWhoLikedMeRequest) (*domain.WhoLikedMe, error)
	Unmatch(context.Context, *UnmatchRequest) (*domain.Match, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
}

// ServiceDesc describes MatchmakingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchmakingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetCandidates", MatchmakingServer.GetCandidates),
		unary("RecordAction", MatchmakingServer.RecordAction),
		unary("RecordPass", MatchmakingServer.RecordPass),
		unary("UndoLastAction", MatchmakingServer.UndoLastAction),
		unary("GetWhoLikedMe", MatchmakingServer.GetWhoLikedMe),
		unary("Unmatch", MatchmakingServer.Unmatch),
		unary("ListMatches", MatchmakingServer.ListMatches),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterMatchmakingServer attaches srv to s.
func RegisterMatchmakingServer(s grpc.ServiceRegistrar, srv MatchmakingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds the method descriptor the way protoc-gen-go-grpc would
// write it by hand for each method.
func unary[Req, Resp any](name string, call func(MatchmakingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchmakingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchmakingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client is the client API for MatchmakingService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCandidates(ctx context.Context, in *GetCandidatesRequest, opts ...grpc.CallOption) (*GetCandidatesResponse, error) {
	return invoke[GetCandidatesResponse](ctx, c.cc, "GetCandidates", in, opts)
}

func (c *Client) RecordAction(ctx context.Context, in *RecordActionRequest, opts ...grpc.CallOption) (*domain.ActionResult, error) {
	return invoke[domain.ActionResult](ctx, c.cc, "RecordAction", in, opts)
}

func (c *Client) RecordPass(ctx context.Context, in *RecordPassRequest, opts ...grpc.CallOption) (*domain.ActionResult, error) {
	return invoke[domain.ActionResult](ctx, c.cc, "RecordPass", in, opts)
}

func (c *Client) UndoLastAction(ctx context.Context, in *UndoLastActionRequest, opts ...grpc.CallOption) (*domain.UndoResult, error) {
	return invoke[domain.UndoResult](ctx, c.cc, "UndoLastAction", in, opts)
}

func (c *Client) GetWhoLikedMe(ctx context.Context, in *GetWhoLikedMeRequest, opts ...grpc.CallOption) (*domain.WhoLikedMe, error) {
	return invoke[domain.WhoLikedMe](ctx, c.cc, "GetWhoLikedMe", in, opts)
}

func (c *Client) Unmatch(ctx context.Context, in *UnmatchRequest, opts ...grpc.CallOption) (*domain.Match, error) {
	return invoke[domain.Match](ctx, c.cc, "Unmatch", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", in, opts)
}
