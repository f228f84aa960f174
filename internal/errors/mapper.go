// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts service/repo/infra errors into gRPC-friendly status errors.
// Keeps the transport layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindDuplicateAction:
			return status.Error(codes.AlreadyExists, e.Message)
		case KindNothingToUndo, KindUndoWindowExpired:
			return status.Error(codes.FailedPrecondition, e.Message)
		case KindNotFound:
			return status.Error(codes.NotFound, e.Message)
		case KindInvalidFilter, KindInvalidArgument:
			return status.Error(codes.InvalidArgument, e.Message)
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// internal details are logged by the service, never sent to clients
		return status.Error(codes.Internal, "internal error")
	}
}
