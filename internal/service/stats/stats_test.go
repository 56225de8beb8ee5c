package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	"github.com/oggyb/presence-gateway/internal/logger"
)

const playerDoc = `{
	"displayname": "axolotl",
	"networkExp": 5000,
	"networkLevel": 1,
	"achievements": {"bedwars_level": 120},
	"stats": {
		"SkyWars": {"skywars_experience": 4200},
		"Bedwars": {"final_kills_bedwars": 31, "wins_bedwars": 12, "winstreak": 2}
	}
}`

// fakeFetcher counts calls and can hold them until released.
type fakeFetcher struct {
	calls   atomic.Int32
	quota   Quota
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ uuid.UUID) ([]byte, Quota, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, Quota{}, f.err
	}
	return []byte(playerDoc), f.quota, nil
}

func newTestProxy(f Fetcher, clk clock.Clock) *RateLimitedCache {
	return NewRateLimitedCache(Options{
		CacheBytes:       1 << 20,
		TTL:              48 * time.Hour,
		LowWatermark:     2,
		ReserveThreshold: 2,
		Clock:            clk,
	}, f, logger.Discard())
}

func TestLeveling(t *testing.T) {
	assert.Zero(t, TotalExpToFullLevel(1))
	assert.Equal(t, 10_000.0, TotalExpToFullLevel(2))
	assert.Equal(t, 22_500.0, TotalExpToFullLevel(3))

	assert.Equal(t, 1.0, Level(0))
	assert.Equal(t, 2.0, Level(10_000))
	assert.Equal(t, 3.0, Level(22_500))
	assert.InDelta(t, 2.4, ExactLevel(15_000), 1e-9)
}

func TestProject(t *testing.T) {
	doc := []byte(playerDoc)

	out, err := Project(NetworkLevel, doc)
	require.NoError(t, err)
	// 5000 exp on top of the 10000 needed for level 2
	assert.JSONEq(t, `{"network_level": 2.4}`, string(out))

	out, err = Project(BedwarsLevel, doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bedwars_level": 120}`, string(out))

	out, err = Project(SkywarsExperience, doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"skywars_experience": 4200}`, string(out))

	out, err = Project(BedwarsData, doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"final_kills_bedwars": 31, "final_deaths_bedwars": 0, "beds_broken_bedwars": 0,
		"deaths_bedwars": 0, "kills_bedwars": 0, "losses_bedwars": 0,
		"wins_bedwars": 12, "winstreak": 2
	}`, string(out))

	out, err = Project(BedwarsLevel, []byte(`null`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"bedwars_level": -1}`, string(out))

	_, err = Project(BedwarsData, []byte(`{"stats": {}}`))
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestWeightedCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newWeightedCache(10, time.Hour, clock.NewMock())
	a, b, d := uuid.New(), uuid.New(), uuid.New()

	c.Add(a, []byte("aaaa"))
	c.Add(b, []byte("bbbb"))
	_, ok := c.Get(a)
	require.True(t, ok)

	c.Add(d, []byte("dddd"))
	assert.Equal(t, int64(8), c.Weight())
	_, ok = c.Get(b)
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get(a)
	assert.True(t, ok)

	// replacing a key does not double count
	c.Add(a, []byte("aa"))
	assert.Equal(t, int64(6), c.Weight())

	c.Add(uuid.New(), make([]byte, 11))
	assert.Equal(t, 2, c.Len(), "oversized payloads are not kept")
}

func TestWeightedCacheExpires(t *testing.T) {
	clk := clock.NewMock()
	c := newWeightedCache(100, time.Hour, clk)
	key := uuid.New()

	c.Add(key, []byte("payload"))
	clk.Add(59 * time.Minute)
	_, ok := c.Get(key)
	assert.True(t, ok)

	clk.Add(time.Minute)
	_, ok = c.Get(key)
	assert.False(t, ok)
	assert.Zero(t, c.Weight())
}

func TestRateLimitedReserve(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	f := &fakeFetcher{quota: Quota{Limit: 10, Remaining: 9, Reset: time.Minute}}
	p := newTestProxy(f, clk)

	resetAt := clk.Now().Add(30 * time.Second)
	p.window = Window{Limit: 10, Remaining: 1, ResetAt: resetAt}

	_, err := p.GetOrFetch(context.Background(), uuid.New())
	var limited *svcErr.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, resetAt, limited.RetryAfter)
	assert.Equal(t, 30*time.Second, limited.Wait, "wait follows the cache clock")
	assert.Zero(t, f.calls.Load())

	clk.Add(31 * time.Second)
	doc, err := p.GetOrFetch(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.JSONEq(t, playerDoc, string(doc))
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, Window{Limit: 10, Remaining: 9, ResetAt: clk.Now().Add(time.Minute)}, p.Window())
}

func TestCacheHitSkipsUpstream(t *testing.T) {
	f := &fakeFetcher{quota: Quota{Limit: 10, Remaining: 9, Reset: time.Minute}}
	p := newTestProxy(f, clock.NewMock())
	player := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := p.GetOrFetch(context.Background(), player)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	f := &fakeFetcher{
		quota:   Quota{Limit: 10, Remaining: 9, Reset: time.Minute},
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	p := newTestProxy(f, clock.NewMock())
	player := uuid.New()

	var wg sync.WaitGroup
	results := make([][]byte, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := p.GetOrFetch(context.Background(), player)
			assert.NoError(t, err)
			results[i] = doc
		}(i)
	}

	<-f.started
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, doc := range results {
		assert.JSONEq(t, playerDoc, string(doc))
	}
}

func TestUpstreamFailureIsNotCached(t *testing.T) {
	f := &fakeFetcher{err: svcErr.Upstream("boom")}
	p := newTestProxy(f, clock.NewMock())
	player := uuid.New()

	_, err := p.GetOrFetch(context.Background(), player)
	assert.ErrorIs(t, err, svcErr.ErrUpstreamUnavailable)
	assert.Equal(t, Window{Limit: 10, Remaining: 10}, p.Window())

	f.err = nil
	f.quota = Quota{Limit: 10, Remaining: 8, Reset: time.Minute}
	_, err = p.GetOrFetch(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestHTTPFetcher(t *testing.T) {
	player := uuid.New()
	var gotKey, gotUUID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player", r.URL.Path)
		gotKey = r.Header.Get("API-Key")
		gotUUID = r.URL.Query().Get("uuid")
		w.Header().Set("RateLimit-Limit", "300")
		w.Header().Set("RateLimit-Remaining", "299")
		w.Header().Set("RateLimit-Reset", "42")
		_, _ = w.Write([]byte(`{"success": true, "player": ` + playerDoc + `}`))
	}))
	defer srv.Close()

	doc, quota, err := NewHTTPFetcher(srv.Client(), srv.URL, "secret").Fetch(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, player.String(), gotUUID)
	assert.Equal(t, Quota{Limit: 300, Remaining: 299, Reset: 42 * time.Second}, quota)
	assert.JSONEq(t, playerDoc, string(doc))
}

func TestHTTPFetcherFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
	}{
		{"rate limited", http.StatusTooManyRequests, map[string]string{"RateLimit-Limit": "300", "RateLimit-Remaining": "0", "RateLimit-Reset": "10"}, `{}`},
		{"missing headers", http.StatusOK, nil, `{"player": {}}`},
		{"malformed header", http.StatusOK, map[string]string{"RateLimit-Limit": "lots", "RateLimit-Remaining": "1", "RateLimit-Reset": "10"}, `{"player": {}}`},
		{"reset overflows duration", http.StatusOK, map[string]string{"RateLimit-Limit": "300", "RateLimit-Remaining": "1", "RateLimit-Reset": "99999999999"}, `{"player": {}}`},
		{"invalid body", http.StatusOK, map[string]string{"RateLimit-Limit": "300", "RateLimit-Remaining": "1", "RateLimit-Reset": "10"}, `{"player": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, _, err := NewHTTPFetcher(srv.Client(), srv.URL, "k").Fetch(context.Background(), uuid.New())
			assert.True(t, errors.Is(err, svcErr.ErrUpstreamUnavailable), "got %v", err)
		})
	}
}

func TestParseQuotaResetBound(t *testing.T) {
	h := http.Header{}
	h.Set("RateLimit-Limit", "300")
	h.Set("RateLimit-Remaining", "1")

	h.Set("RateLimit-Reset", strconv.FormatInt(maxResetSeconds, 10))
	q, err := parseQuota(h)
	require.NoError(t, err)
	assert.Positive(t, q.Reset)

	h.Set("RateLimit-Reset", strconv.FormatInt(maxResetSeconds+1, 10))
	_, err = parseQuota(h)
	assert.ErrorIs(t, err, svcErr.ErrUpstreamUnavailable)
}
