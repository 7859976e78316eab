// Package grpcserver exposes the DiaryStore gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/and161185/diary-sync/internal/api/diarysyncv1"
	"github.com/and161185/diary-sync/internal/convert"
	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	pb.UnimplementedDiaryStoreServer
	users   service.IdentityService
	diaries service.DiaryService
}

// New constructs a gRPC server with injected services.
func New(users service.IdentityService, diaries service.DiaryService) *Server {
	return &Server{users: users, diaries: diaries}
}

func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, op+": canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, op+": deadline exceeded")
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

func parseUserID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "bad user_id")
	}
	return id, nil
}

// --- Users ---

// CreateOrGetUser resolves a line username to a user, creating it on first use.
func (s *Server) CreateOrGetUser(ctx context.Context, req *pb.CreateOrGetUserRequest) (*pb.CreateOrGetUserResponse, error) {
	if req.GetLineUsername() == "" {
		return nil, status.Error(codes.InvalidArgument, "empty line_username")
	}
	u, err := s.users.CreateOrGet(ctx, req.GetLineUsername())
	if err != nil {
		return nil, toStatus("create or get user", err)
	}
	return &pb.CreateOrGetUserResponse{User: convert.ToWireUser(u)}, nil
}

// --- Diaries ---

// UpsertDiaries stores a batch of diary rows keyed by id.
func (s *Server) UpsertDiaries(ctx context.Context, req *pb.UpsertDiariesRequest) (*pb.UpsertDiariesResponse, error) {
	rows, err := convert.FromWireDiaries(req.GetEntries())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad entries: %v", err)
	}
	n, err := s.diaries.Upsert(ctx, rows, model.UpsertOptions{
		OnConflict:       req.GetOnConflict(),
		IgnoreDuplicates: req.GetIgnoreDuplicates(),
	})
	if err != nil {
		return nil, toStatus("upsert", err)
	}
	return &pb.UpsertDiariesResponse{Affected: n}, nil
}

// DeleteDiary removes one row by id.
func (s *Server) DeleteDiary(ctx context.Context, req *pb.DeleteDiaryRequest) (*pb.DeleteResponse, error) {
	if req.GetId() == "" {
		return nil, status.Error(codes.InvalidArgument, "empty id")
	}
	n, err := s.diaries.Delete(ctx, req.GetId())
	if err != nil {
		return nil, toStatus("delete", err)
	}
	return &pb.DeleteResponse{Deleted: n}, nil
}

// DeleteDiaries removes rows by id list.
func (s *Server) DeleteDiaries(ctx context.Context, req *pb.DeleteDiariesRequest) (*pb.DeleteResponse, error) {
	n, err := s.diaries.DeleteMany(ctx, req.GetIds())
	if err != nil {
		return nil, toStatus("delete many", err)
	}
	return &pb.DeleteResponse{Deleted: n}, nil
}

// CountDiaries returns the number of rows owned by a user.
func (s *Server) CountDiaries(ctx context.Context, req *pb.UserScopeRequest) (*pb.CountDiariesResponse, error) {
	userID, err := parseUserID(req.GetUserId())
	if err != nil {
		return nil, err
	}
	n, err := s.diaries.Count(ctx, userID)
	if err != nil {
		return nil, toStatus("count", err)
	}
	return &pb.CountDiariesResponse{Count: n}, nil
}

// DeleteUserDiaries removes every row owned by a user.
func (s *Server) DeleteUserDiaries(ctx context.Context, req *pb.UserScopeRequest) (*pb.DeleteResponse, error) {
	userID, err := parseUserID(req.GetUserId())
	if err != nil {
		return nil, err
	}
	n, err := s.diaries.DeleteAllForUser(ctx, userID)
	if err != nil {
		return nil, toStatus("delete user diaries", err)
	}
	return &pb.DeleteResponse{Deleted: n}, nil
}

// DeleteTestDiaries removes a user's rows that carry a test-data marker.
func (s *Server) DeleteTestDiaries(ctx context.Context, req *pb.DeleteTestDiariesRequest) (*pb.DeleteResponse, error) {
	userID, err := parseUserID(req.GetUserId())
	if err != nil {
		return nil, err
	}
	n, err := s.diaries.DeleteTestData(ctx, userID, req.GetMarkers())
	if err != nil {
		return nil, toStatus("delete test diaries", err)
	}
	return &pb.DeleteResponse{Deleted: n}, nil
}

// RemoveDuplicateDiaries collapses a user's rows that share a content key.
func (s *Server) RemoveDuplicateDiaries(ctx context.Context, req *pb.UserScopeRequest) (*pb.DeleteResponse, error) {
	userID, err := parseUserID(req.GetUserId())
	if err != nil {
		return nil, err
	}
	n, err := s.diaries.RemoveDuplicates(ctx, userID)
	if err != nil {
		return nil, toStatus("remove duplicates", err)
	}
	return &pb.DeleteResponse{Deleted: n}, nil
}
