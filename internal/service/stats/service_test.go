package stats_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/presence-gateway/internal/app"
	"github.com/oggyb/presence-gateway/internal/config"
	"github.com/oggyb/presence-gateway/internal/db"
	"github.com/oggyb/presence-gateway/internal/logger"
	"github.com/oggyb/presence-gateway/internal/server"
	"github.com/oggyb/presence-gateway/internal/service/stats"
)

// setupService serves StatsService over bufconn against a fake upstream
// reporting remaining quota. It returns a client and an authenticated context.
func setupService(t *testing.T, remaining string) (*stats.StatsServiceClient, context.Context) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("RateLimit-Limit", "10")
		w.Header().Set("RateLimit-Remaining", remaining)
		w.Header().Set("RateLimit-Reset", "60")
		_, _ = w.Write([]byte(`{"success": true, "player": {"achievements": {"bedwars_level": 7}}}`))
	}))
	t.Cleanup(upstream.Close)

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db.Models()...))

	cfg := config.New()
	cfg.Stats.APIURL = upstream.URL
	appCtx := app.New(cfg, database, nil, logger.Discard())
	proxy := stats.NewFromConfig(cfg, "key", appCtx.Logger)

	srv := server.NewGRPCServer(appCtx.Verifier, appCtx.Logger, stats.NewRegistrar(appCtx, proxy))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	user := db.User{ID: uuid.New(), Username: "alice"}
	require.NoError(t, database.Create(&user).Error)
	token, err := appCtx.Verifier.Issue(context.Background(), user.ID, time.Hour)
	require.NoError(t, err)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", token)
	return stats.NewStatsServiceClient(conn), ctx
}

func TestGetStats(t *testing.T) {
	client, ctx := setupService(t, "9")

	resp, err := client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: uuid.NewString(), RequestType: "bedwars_level"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bedwars_level": 7}`, string(resp.Data))

	_, err = client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: uuid.NewString(), RequestType: "bedwars_data"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: "steve", RequestType: "bedwars_level"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: uuid.NewString(), RequestType: "pit_prestige"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetStatsRateLimited(t *testing.T) {
	client, ctx := setupService(t, "0")
	player := uuid.NewString()

	_, err := client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: player, RequestType: "bedwars_level"})
	require.NoError(t, err)

	// cached players are still served
	_, err = client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: player, RequestType: "skywars_experience"})
	require.NoError(t, err)

	_, err = client.GetStats(ctx, &stats.GetStatsRequest{TargetPlayer: uuid.NewString(), RequestType: "bedwars_level"})
	st := status.Convert(err)
	require.Equal(t, codes.ResourceExhausted, st.Code())

	var retry *errdetails.RetryInfo
	for _, d := range st.Details() {
		if ri, ok := d.(*errdetails.RetryInfo); ok {
			retry = ri
		}
	}
	require.NotNil(t, retry)
	assert.InDelta(t, 60, retry.GetRetryDelay().AsDuration().Seconds(), 5)
}
