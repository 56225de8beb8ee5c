package gateway

import (
	"bytes"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	applog "github.com/oggyb/presence-gateway/internal/logger"
	"github.com/oggyb/presence-gateway/internal/presence"
)

const nonceSize = 32

type eventKind int

const (
	eventPing eventKind = iota
	eventPong
	eventData
	eventError
)

type event struct {
	kind    eventKind
	payload []byte
	err     error
}

// session is the state of one gateway connection. Only run's goroutine
// writes data frames; the reader goroutine answers pings with WriteControl.
type session struct {
	h      *Handler
	conn   *websocket.Conn
	user   uuid.UUID
	agent  string
	outbox *presence.Outbox
	logger *slog.Logger

	events     chan event
	done       chan struct{}
	readerDone chan struct{}

	// nonce of the outstanding ping, nil when none
	pending []byte
}

func newSession(h *Handler, conn *websocket.Conn, user uuid.UUID, agent string) *session {
	return &session{
		h:          h,
		conn:       conn,
		user:       user,
		agent:      agent,
		outbox:     presence.NewOutbox(),
		logger:     applog.Subsystem(h.appCtx.Logger, "gateway").With("user", user, "agent", agent),
		events:     make(chan event, 1),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
}

// emit hands ev to the loop, giving up once the loop has exited.
func (s *session) emit(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// read pumps socket frames into events until the socket fails.
func (s *session) read() {
	defer close(s.readerDone)

	s.conn.SetPingHandler(func(data string) error {
		err := s.conn.WriteControl(websocket.PongMessage, []byte(data), s.h.Clock.Now().Add(s.h.writeTimeout))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			return err
		}
		s.emit(event{kind: eventPing})
		return nil
	})
	s.conn.SetPongHandler(func(data string) error {
		s.emit(event{kind: eventPong, payload: []byte(data)})
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.emit(event{kind: eventError, err: err})
			return
		}
		if !s.emit(event{kind: eventData}) {
			return
		}
	}
}

// run is the connection's event loop. Inbound frames take priority over
// queued notifications, which take priority over the keepalive timer.
func (s *session) run() Reason {
	go s.read()
	defer close(s.done)

	timer := s.h.Clock.Timer(s.h.keepAlive)
	defer timer.Stop()

	for {
		select {
		case ev := <-s.events:
			if reason, stop := s.inbound(ev, timer); stop {
				return reason
			}
			continue
		default:
		}

		select {
		case <-s.outbox.Ready():
			if reason, stop := s.deliver(); stop {
				return reason
			}
			continue
		default:
		}

		select {
		case ev := <-s.events:
			if reason, stop := s.inbound(ev, timer); stop {
				return reason
			}
		case <-s.outbox.Ready():
			if reason, stop := s.deliver(); stop {
				return reason
			}
		case <-timer.C:
			if reason, stop := s.keepalive(timer); stop {
				return reason
			}
		}
	}
}

func (s *session) inbound(ev event, timer *clock.Timer) (Reason, bool) {
	switch ev.kind {
	case eventPing:
	case eventPong:
		if s.pending == nil || !bytes.Equal(ev.payload, s.pending) {
			s.logger.Debug("unexpected pong")
			return ReasonInvalidData, true
		}
	case eventData:
		s.logger.Debug("client sent a data frame")
		return ReasonInvalidData, true
	default:
		if !websocket.IsCloseError(ev.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.logger.Debug("gateway read failed", "err", ev.err)
		}
		return ReasonClosed, true
	}

	// any valid inbound frame proves liveness
	s.pending = nil
	resetTimer(timer, s.h.keepAlive)
	return 0, false
}

func (s *session) deliver() (Reason, bool) {
	msg, ok := s.outbox.Pop()
	if !ok {
		return 0, false
	}
	_ = s.conn.SetWriteDeadline(s.h.Clock.Now().Add(s.h.writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		s.logger.Debug("gateway write failed", "err", err)
		return ReasonError, true
	}
	return 0, false
}

func (s *session) keepalive(timer *clock.Timer) (Reason, bool) {
	if s.pending != nil {
		return ReasonTimedOut, true
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		s.logger.Error("failed to generate ping nonce", "err", err)
		return ReasonError, true
	}
	if err := s.conn.WriteControl(websocket.PingMessage, nonce, s.h.Clock.Now().Add(s.h.writeTimeout)); err != nil {
		s.logger.Debug("gateway ping failed", "err", err)
		return ReasonError, true
	}
	s.pending = nonce
	timer.Reset(s.h.keepAlive)
	return 0, false
}

// shutdown sends the close frame, waits briefly for the peer to answer it,
// and closes the socket.
func (s *session) shutdown(reason Reason) {
	deadline := s.h.Clock.Now().Add(s.h.writeTimeout)
	msg := websocket.FormatCloseMessage(reason.Code(), reason.Text())
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err == nil {
		select {
		case <-s.readerDone:
		case <-s.h.Clock.After(s.h.writeTimeout):
		}
	}
	_ = s.conn.Close()
	<-s.readerDone
}

func resetTimer(t *clock.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
