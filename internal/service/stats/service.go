package stats

import (
	"context"

	"github.com/google/uuid"

	"github.com/oggyb/presence-gateway/internal/app"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

// Service implements the StatsService gRPC API.
type Service struct {
	appCtx *app.AppContext
	proxy  *RateLimitedCache
}

func NewStatsService(appCtx *app.AppContext, proxy *RateLimitedCache) *Service {
	return &Service{appCtx: appCtx, proxy: proxy}
}

// GetStats returns one projection of the target player's upstream document.
//
// Behavior:
//   - Served from cache when possible; a miss spends one upstream call.
//   - ResourceExhausted with RetryInfo when the shared quota is spent.
//
// Example:
//
//	svc.GetStats(ctx, &GetStatsRequest{TargetPlayer: "…", RequestType: "bedwars_level"})
func (s *Service) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	player, err := uuid.Parse(req.TargetPlayer)
	if err != nil {
		return nil, svcErr.InvalidArgument("target_player must be a valid uuid")
	}
	kind := RequestType(req.RequestType)
	if !kind.Valid() {
		return nil, svcErr.InvalidArgument("request_type must be one of network_level, bedwars_level, skywars_experience, bedwars_data")
	}

	s.appCtx.Logger.Debug("GetStats called", "player", player, "request_type", kind)

	doc, err := s.proxy.GetOrFetch(ctx, player)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	data, err := Project(kind, doc)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GetStatsResponse{Data: data}, nil
}
