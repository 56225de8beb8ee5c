package stats

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

// maxBody bounds a single upstream player document.
const maxBody = 8 << 20

// maxResetSeconds is the largest RateLimit-Reset that fits a time.Duration.
const maxResetSeconds = math.MaxInt64 / int64(time.Second)

// Quota is the rate limit reported by the upstream on one response.
type Quota struct {
	Limit     int64
	Remaining int64
	Reset     time.Duration // until the window replenishes
}

// Fetcher retrieves the raw player document for one player.
type Fetcher interface {
	Fetch(ctx context.Context, player uuid.UUID) ([]byte, Quota, error)
}

// HTTPFetcher calls GET {baseURL}/player?uuid=… with an API-Key header.
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPFetcher(client *http.Client, baseURL, apiKey string) *HTTPFetcher {
	return &HTTPFetcher{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Fetch returns the "player" field of the response.
//
// Errors: any transport failure, a non-200 status (429 included), missing or
// malformed RateLimit-* headers and an unparsable body are all reported as
// ErrUpstreamUnavailable.
func (f *HTTPFetcher) Fetch(ctx context.Context, player uuid.UUID) ([]byte, Quota, error) {
	endpoint := f.baseURL + "/player?" + url.Values{"uuid": {player.String()}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, Quota{}, svcErr.Upstream("build request: %v", err)
	}
	req.Header.Set("API-Key", f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, Quota{}, svcErr.Upstream("request player %s: %v", player, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Quota{}, svcErr.Upstream("player %s: status %d", player, resp.StatusCode)
	}

	quota, err := parseQuota(resp.Header)
	if err != nil {
		return nil, Quota{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, Quota{}, svcErr.Upstream("read player %s: %v", player, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, Quota{}, svcErr.Upstream("player %s: invalid json", player)
	}
	raw := gjson.GetBytes(body, "player").Raw
	if raw == "" {
		raw = "null"
	}
	return []byte(raw), quota, nil
}

func parseQuota(h http.Header) (Quota, error) {
	var q Quota
	var reset int64
	for _, field := range []struct {
		name string
		dst  *int64
	}{
		{"RateLimit-Limit", &q.Limit},
		{"RateLimit-Remaining", &q.Remaining},
		{"RateLimit-Reset", &reset},
	} {
		v := h.Get(field.name)
		if v == "" {
			return Quota{}, svcErr.Upstream("missing %s header", field.name)
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return Quota{}, svcErr.Upstream("malformed %s header %q", field.name, v)
		}
		*field.dst = n
	}
	if reset > maxResetSeconds {
		return Quota{}, svcErr.Upstream("malformed RateLimit-Reset header %d", reset)
	}
	q.Reset = time.Duration(reset) * time.Second
	return q, nil
}

// String is for logs.
func (q Quota) String() string {
	return fmt.Sprintf("%d/%d reset in %s", q.Remaining, q.Limit, q.Reset)
}
