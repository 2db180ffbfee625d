package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/rpc"
)

var _ rpc.BoardServiceServer = (*BoardServer)(nil)

// NewGRPCServer creates a gRPC server with standard interceptors and
// registers the BoardService. An empty authToken disables auth.
func NewGRPCServer(boardServer *BoardServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(boardServer.logger),
			LoggingInterceptor(boardServer.logger),
			AuthInterceptor(authToken),
		),
	)
	rpc.RegisterBoardServiceServer(srv, boardServer)
	return srv
}

// GetView returns the current view, or an ad-hoc derivation when the request
// names a mode.
func (s *BoardServer) GetView(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.ViewRequest
	if err := rpc.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sel, v, err := s.currentView(req.Grouping, req.Ordering)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(rpc.NewViewResponse(sel, v))
}

// GetBoard returns the column projection of the requested view.
func (s *BoardServer) GetBoard(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.ViewRequest
	if err := rpc.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := s.boardColumns(req.Grouping, req.Ordering)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(resp)
}

func (s *BoardServer) GetSelectors(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.board.Selectors())
}

// SetSelectors applies a partial selectors update.
func (s *BoardServer) SetSelectors(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.SelectorsUpdate
	if err := rpc.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sel, err := s.applySelectors(req)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(sel)
}

// GetSnapshot returns the snapshot the current view was derived from.
func (s *BoardServer) GetSnapshot(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.snapshotOrEmpty())
}

// Refresh refetches the snapshot from the data source.
func (s *BoardServer) Refresh(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	snap, err := s.RefreshSnapshot(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(rpc.RefreshResponse{Tickets: len(snap.Tickets), Users: len(snap.Users)})
}

// Health returns the service health status.
func (s *BoardServer) Health(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(rpc.HealthResponse{Status: "ok"})
}

func toStruct(v any) (*structpb.Struct, error) {
	out, err := rpc.ToStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// grpcError maps board errors onto gRPC status codes.
func grpcError(err error) error {
	var ie inputError
	switch {
	case errors.As(err, &ie), errors.Is(err, model.ErrInvalidMode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrInvalidPriority):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrSourceUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
