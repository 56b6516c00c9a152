// Package grpcapi exposes the manager as the torchserve.v1.TorchServe gRPC
// service: request validation, error to status translation, interceptors
// and server assembly.
package grpcapi

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"torchserved/internal/manager"
	pb "torchserved/pkg/torchservepb"
)

// Backend is the lifecycle and inference surface the service drives.
// *manager.Manager implements it.
type Backend interface {
	Load(ctx context.Context, name string) (manager.State, error)
	Unload(ctx context.Context, name string) (manager.State, error)
	Status(name string) (manager.State, error)
	Predict(ctx context.Context, name string, input []byte) ([]byte, error)
}

// Service implements pb.TorchServeServer.
type Service struct {
	pb.UnimplementedTorchServeServer
	backend Backend
	log     zerolog.Logger
}

// NewService wraps backend.
func NewService(backend Backend, log zerolog.Logger) *Service {
	return &Service{backend: backend, log: log}
}

func modelName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", status.Error(codes.InvalidArgument, "model_name is required")
	}
	return name, nil
}

// audit records who asked for a lifecycle change. The token subject is
// present only on authenticated calls.
func (s *Service) audit(ctx context.Context, op, name string) {
	ev := s.log.Info().Str("op", op).Str("model", name).Str("request_id", RequestID(ctx))
	if c, ok := ClaimsFrom(ctx); ok {
		ev = ev.Str("subject", c.Subject)
	}
	ev.Msg("lifecycle request")
}

// LoadModel registers the model and starts (or, in sync mode, finishes) loading it.
func (s *Service) LoadModel(ctx context.Context, req *pb.ModelRequest) (*pb.ModelStatus, error) {
	name, err := modelName(req.GetModelName())
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "load", name)
	st, err := s.backend.Load(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ModelStatus{ModelName: name, Status: st.String()}, nil
}

// UnloadModel drains in-flight predictions and releases the model.
func (s *Service) UnloadModel(ctx context.Context, req *pb.ModelRequest) (*pb.ModelStatus, error) {
	name, err := modelName(req.GetModelName())
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "unload", name)
	st, err := s.backend.Unload(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ModelStatus{ModelName: name, Status: st.String()}, nil
}

// GetModelStatus reports the current lifecycle state.
func (s *Service) GetModelStatus(_ context.Context, req *pb.ModelRequest) (*pb.ModelStatus, error) {
	name, err := modelName(req.GetModelName())
	if err != nil {
		return nil, err
	}
	st, err := s.backend.Status(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ModelStatus{ModelName: name, Status: st.String()}, nil
}

// Predict runs the input bytes through an Available model.
func (s *Service) Predict(ctx context.Context, req *pb.PredictRequest) (*pb.PredictResponse, error) {
	name, err := modelName(req.GetModelName())
	if err != nil {
		return nil, err
	}
	out, err := s.backend.Predict(ctx, name, req.GetInputData())
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.PredictResponse{OutputData: out}, nil
}
