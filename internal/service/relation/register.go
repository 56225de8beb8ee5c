package relation

import (
	"google.golang.org/grpc"

	"github.com/oggyb/presence-gateway/internal/app"
)

// Registrar ties the Relation service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Relation service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Relation service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	RegisterRelationServiceServer(s, NewRelationService(r.appCtx))
}
