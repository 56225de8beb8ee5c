// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"gorm.io/gorm"
)

// Map converts repo/infra/domain errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var limited *RateLimitedError
	switch {
	case errors.As(err, &limited):
		return rateLimitedStatus(limited)

	case errors.Is(err, ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, ErrSelfRelation):
		return status.Error(codes.InvalidArgument, "cannot set a relation with yourself")

	case errors.Is(err, ErrInvalidPageToken):
		return status.Error(codes.InvalidArgument, "invalid pagination token")

	case errors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication failed")

	case errors.Is(err, ErrUpstreamUnavailable):
		// cause is logged by the caller, never surfaced
		return status.Error(codes.Unavailable, "upstream service unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

func rateLimitedStatus(e *RateLimitedError) error {
	st := status.New(codes.ResourceExhausted, "rate limited")
	if detailed, err := st.WithDetails(&errdetails.RetryInfo{RetryDelay: durationpb.New(e.Wait)}); err == nil {
		st = detailed
	}
	return st.Err()
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
