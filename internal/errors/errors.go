package errors

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors shared by the relation store, the stats proxy and the gateway.
// Callers classify with errors.Is / errors.As; Map turns them into gRPC statuses.
var (
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrSelfRelation        = errors.New("relation with self")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrProtocolViolation   = errors.New("protocol violation")
	ErrTimeout             = errors.New("keepalive timed out")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidPageToken    = errors.New("invalid pagination token")
)

// RateLimitedError is returned when the shared upstream quota is exhausted.
// RetryAfter is the absolute time the window is expected to replenish; Wait is
// the delay until then, measured on the clock of the component that refused.
type RateLimitedError struct {
	RetryAfter time.Time
	Wait       time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.RetryAfter.UTC().Format(time.RFC3339))
}

// RateLimited builds a *RateLimitedError as seen at now. Wait is never negative.
func RateLimited(retryAfter, now time.Time) error {
	return &RateLimitedError{RetryAfter: retryAfter, Wait: max(retryAfter.Sub(now), 0)}
}

// Upstream wraps a failure talking to the external API so it matches ErrUpstreamUnavailable.
func Upstream(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, fmt.Sprintf(format, args...))
}
