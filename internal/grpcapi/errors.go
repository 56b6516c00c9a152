package grpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"torchserved/internal/auth"
	"torchserved/internal/catalog"
	"torchserved/internal/manager"
)

// toStatus is the single translation point from domain errors to gRPC
// status codes. Order matters: ModelNotReady wraps NotFound and the failure
// sentinels may wrap context errors.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeOf(err), err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, manager.ErrInvalidName):
		return codes.InvalidArgument
	case errors.Is(err, manager.ErrModelNotReady), errors.Is(err, manager.ErrNotAvailable):
		return codes.Unavailable
	case errors.Is(err, manager.ErrLoadFailure),
		errors.Is(err, manager.ErrUnloadFailure),
		errors.Is(err, manager.ErrCompute):
		// may wrap a load or predict timeout; still a server-side failure
		return codes.Internal
	case errors.Is(err, manager.ErrNotFound), errors.Is(err, catalog.ErrArtifactNotFound):
		return codes.NotFound
	case errors.Is(err, manager.ErrAlreadyExists):
		return codes.AlreadyExists
	case errors.Is(err, manager.ErrInvalidTransition):
		return codes.FailedPrecondition
	case errors.Is(err, manager.ErrClosed):
		return codes.Unavailable
	case errors.Is(err, auth.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}
