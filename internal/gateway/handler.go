// Package gateway serves the presence websocket: one connection per user,
// server-driven keepalive, and delivery of queued notifications.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oggyb/presence-gateway/internal/app"
	"github.com/oggyb/presence-gateway/internal/auth"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	"github.com/oggyb/presence-gateway/internal/metrics"
	"github.com/oggyb/presence-gateway/internal/repository"
)

// maxInbound bounds inbound frames; clients only ever send control frames.
const maxInbound = 4096

// Handler upgrades authenticated requests and runs one session per connection.
type Handler struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	upgrader websocket.Upgrader

	keepAlive    time.Duration
	writeTimeout time.Duration

	// Clock drives keepalive timers and last seen stamps.
	Clock clock.Clock
}

// NewHandler creates a gateway handler using the keepalive settings in appCtx.Config.
func NewHandler(appCtx *app.AppContext) *Handler {
	return &Handler{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		upgrader: websocket.Upgrader{
			// native clients, no browser origin to check
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		keepAlive:    appCtx.Config.Gateway.KeepAlive,
		writeTimeout: appCtx.Config.Gateway.WriteTimeout,
		Clock:        clock.New(),
	}
}

// ServeHTTP performs the handshake.
//
// Behavior:
//   - Authorization must carry a valid access token, else 401.
//   - User-Agent is required (400); backslashes and quotes are stripped.
//   - A previous connection of the same user is evicted: its outbox is closed
//     and its socket is left to fail keepalive on its own.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if token == "" {
		http.Error(w, "missing authorization", http.StatusUnauthorized)
		return
	}
	user, err := h.appCtx.Verifier.Verify(r.Context(), token)
	if errors.Is(err, svcErr.ErrUnauthenticated) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	} else if err != nil {
		h.appCtx.Logger.Error("token verification failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	agent := sanitizeAgent(r.Header.Get("User-Agent"))
	if agent == "" {
		http.Error(w, "missing user agent", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already replied
		h.appCtx.Logger.Debug("websocket upgrade failed", "user", user, "err", err)
		return
	}
	conn.SetReadLimit(maxInbound)

	s := h.open(conn, user, agent)
	reason := s.run()
	h.close(s, reason)
}

// open registers a fresh outbox for user, evicting any previous one.
func (h *Handler) open(conn *websocket.Conn, user uuid.UUID, agent string) *session {
	s := newSession(h, conn, user, agent)

	if old := h.appCtx.Registry.Register(user, s.outbox); old != nil {
		old.Close()
		s.logger.Info("evicted previous gateway connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	defer cancel()
	if _, err := h.appCtx.RedisCache.AcquireAgent(ctx, agent); err != nil {
		s.logger.Warn("failed to count user agent", "err", err)
	}

	s.logger.Debug("gateway connection active")
	return s
}

// close tears s down: registry entry first, then the close handshake,
// then accounting and the last seen stamp.
func (h *Handler) close(s *session, reason Reason) {
	h.appCtx.Registry.Deregister(s.user, s.outbox)
	s.outbox.Close()

	s.shutdown(reason)

	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	defer cancel()
	if _, err := h.appCtx.RedisCache.ReleaseAgent(ctx, s.agent); err != nil {
		s.logger.Warn("failed to release user agent", "err", err)
	}
	if _, err := h.users.TouchLastOnline(ctx, s.user, h.Clock.Now()); err != nil {
		s.logger.Warn("failed to store last online", "err", err)
	}

	metrics.GatewayDisconnects.WithLabelValues(reason.String()).Inc()
	if err := reason.Err(); err != nil {
		s.logger.Info("gateway connection closed", "reason", reason.Text(), "err", err)
	} else {
		s.logger.Info("gateway connection closed", "reason", reason.Text())
	}
}

func sanitizeAgent(ua string) string {
	return strings.TrimSpace(strings.NewReplacer(`\`, "", `"`, "").Replace(ua))
}
