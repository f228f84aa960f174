package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/matchmaking/internal/app"
	"github.com/oggyb/matchmaking/internal/domain"
	svcErr "github.com/oggyb/matchmaking/internal/errors"
	"github.com/oggyb/matchmaking/internal/service/discovery"
	"github.com/oggyb/matchmaking/internal/service/matching"
)

// Handler implements MatchmakingServer on top of the two services. It only
// translates: requests into service calls, service errors into statuses.
type Handler struct {
	discovery *discovery.Service
	matching  *matching.Service
}

func NewHandler(appCtx *app.AppContext) *Handler {
	return &Handler{
		discovery: discovery.NewService(appCtx),
		matching:  matching.NewService(appCtx),
	}
}

func (h *Handler) GetCandidates(ctx context.Context, req *GetCandidatesRequest) (*GetCandidatesResponse, error) {
	if req.UserID == 0 {
		return nil, svcErr.Map(svcErr.InvalidArgument("user_id is required"))
	}
	list, err := h.discovery.GetCandidates(ctx, req.UserID, req.Limit, req.ExcludeIDs, req.Filters)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GetCandidatesResponse{Candidates: list}, nil
}

func (h *Handler) RecordAction(ctx context.Context, req *RecordActionRequest) (*domain.ActionResult, error) {
	kind, err := domain.ParseActionKind(req.Kind)
	if err != nil {
		return nil, svcErr.Map(svcErr.InvalidArgument(err.Error()))
	}
	res, err := h.matching.RecordAction(ctx, req.SenderID, req.ReceiverID, kind)
	return res, svcErr.Map(err)
}

func (h *Handler) RecordPass(ctx context.Context, req *RecordPassRequest) (*domain.ActionResult, error) {
	res, err := h.matching.RecordPass(ctx, req.SenderID, req.ReceiverID)
	return res, svcErr.Map(err)
}

func (h *Handler) UndoLastAction(ctx context.Context, req *UndoLastActionRequest) (*domain.UndoResult, error) {
	res, err := h.matching.UndoLastAction(ctx, req.UserID)
	return res, svcErr.Map(err)
}

func (h *Handler) GetWhoLikedMe(ctx context.Context, req *GetWhoLikedMeRequest) (*domain.WhoLikedMe, error) {
	res, err := h.matching.GetWhoLikedMe(ctx, req.UserID, req.Limit, req.Offset)
	return res, svcErr.Map(err)
}

func (h *Handler) Unmatch(ctx context.Context, req *UnmatchRequest) (*domain.Match, error) {
	res, err := h.matching.Unmatch(ctx, req.UserID, req.OtherUserID)
	return res, svcErr.Map(err)
}

func (h *Handler) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	list, err := h.matching.ListMatches(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListMatchesResponse{Matches: list}, nil
}

// Registrar ties the matchmaking service into the gRPC server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	RegisterMatchmakingServer(s, NewHandler(r.appCtx))
}
