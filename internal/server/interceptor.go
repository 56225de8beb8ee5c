package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/presence-gateway/internal/auth"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	applog "github.com/oggyb/presence-gateway/internal/logger"
)

// TokenVerifier resolves an access token to its user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// public methods skip authentication
var publicPrefixes = []string{
	"/grpc.health.v1.",
	"/grpc.reflection.",
}

// AuthInterceptor requires metadata "authorization" on every non-public call
// and stores the verified user in the request context.
func AuthInterceptor(verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		for _, p := range publicPrefixes {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}

		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, svcErr.Map(svcErr.ErrUnauthenticated)
		}
		user, err := verifier.Verify(ctx, auth.TokenFromHeader(values[0]))
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return handler(auth.WithUser(ctx, user), req)
	}
}

// LoggingInterceptor logs every call with its duration and status code.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	logger = applog.Subsystem(logger, "grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		logger.Debug("grpc call",
			"method", info.FullMethod,
			"code", code.String(),
			applog.Since(start),
		)
		return resp, err
	}
}
