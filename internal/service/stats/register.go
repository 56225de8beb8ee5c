package stats

import (
	"google.golang.org/grpc"

	"github.com/oggyb/presence-gateway/internal/app"
)

// Registrar ties the Stats service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	proxy  *RateLimitedCache
}

// NewRegistrar creates a new Registrar for the Stats service
func NewRegistrar(appCtx *app.AppContext, proxy *RateLimitedCache) *Registrar {
	return &Registrar{appCtx: appCtx, proxy: proxy}
}

// Register attaches the Stats service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	RegisterStatsServiceServer(s, NewStatsService(r.appCtx, r.proxy))
}
