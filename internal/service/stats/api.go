package stats

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/oggyb/presence-gateway/internal/server/rpc"
)

const StatsService_GetStats_FullMethodName = "/presence.v1.StatsService/GetStats"

type GetStatsRequest struct {
	TargetPlayer string `json:"target_player"`
	RequestType  string `json:"request_type"`
}

// GetStatsResponse carries the projection selected by request_type,
// e.g. {"bedwars_level": 120}.
type GetStatsResponse struct {
	Data json.RawMessage `json:"data"`
}

// StatsServiceServer is the server API for presence.v1.StatsService.
type StatsServiceServer interface {
	GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error)
}

var StatsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "presence.v1.StatsService",
	HandlerType: (*StatsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStats", Handler: rpc.Unary(StatsService_GetStats_FullMethodName, StatsServiceServer.GetStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "presence/v1/stats.proto",
}

func RegisterStatsServiceServer(s grpc.ServiceRegistrar, srv StatsServiceServer) {
	s.RegisterService(&StatsService_ServiceDesc, srv)
}

// StatsServiceClient calls presence.v1.StatsService over the JSON codec.
type StatsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStatsServiceClient(cc grpc.ClientConnInterface) *StatsServiceClient {
	return &StatsServiceClient{cc: cc}
}

func (c *StatsServiceClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	return rpc.Invoke[GetStatsResponse](ctx, c.cc, StatsService_GetStats_FullMethodName, in, opts...)
}
