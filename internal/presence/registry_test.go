package presence_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/presence-gateway/internal/metrics"
	"github.com/oggyb/presence-gateway/internal/presence"
)

func TestRegisterReturnsDisplacedOutbox(t *testing.T) {
	reg := presence.NewRegistry()
	user := uuid.New()

	first := presence.NewOutbox()
	assert.Nil(t, reg.Register(user, first))

	second := presence.NewOutbox()
	assert.Same(t, first, reg.Register(user, second))

	got, ok := reg.Lookup(user)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, reg.Online())
}

func TestDeregisterComparesOutbox(t *testing.T) {
	reg := presence.NewRegistry()
	user := uuid.New()

	stale := presence.NewOutbox()
	reg.Register(user, stale)
	current := presence.NewOutbox()
	reg.Register(user, current)

	// the superseded connection terminating must not remove the new entry
	assert.False(t, reg.Deregister(user, stale))
	_, ok := reg.Lookup(user)
	assert.True(t, ok)

	assert.True(t, reg.Deregister(user, current))
	_, ok = reg.Lookup(user)
	assert.False(t, ok)
	assert.False(t, reg.Deregister(user, current))
}

func TestSetActivityOnlyWhenRegistered(t *testing.T) {
	reg := presence.NewRegistry()
	user := uuid.New()
	act := &presence.Activity{Title: "Playing", Description: "Bedwars", StartedAt: time.Now()}

	assert.False(t, reg.SetActivity(user, act))
	_, online := reg.Presence(user)
	assert.False(t, online, "offline user must not be resurrected")

	reg.Register(user, presence.NewOutbox())
	got, online := reg.Presence(user)
	assert.True(t, online)
	assert.Nil(t, got, "fresh registration has no activity")

	assert.True(t, reg.SetActivity(user, act))
	got, _ = reg.Presence(user)
	require.NotNil(t, got)
	assert.Equal(t, "Bedwars", got.Description)

	// re-register resets the activity
	reg.Register(user, presence.NewOutbox())
	got, _ = reg.Presence(user)
	assert.Nil(t, got)
}

func TestSendSerializesNotification(t *testing.T) {
	reg := presence.NewRegistry()
	user, from := uuid.New(), uuid.New()

	assert.False(t, reg.Send(user, presence.FriendRequest(from)))

	outbox := presence.NewOutbox()
	reg.Register(user, outbox)
	require.True(t, reg.Send(user, presence.FriendRequest(from)))

	msg, ok := outbox.Pop()
	require.True(t, ok)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg, &payload))
	assert.Equal(t, "friend_request", payload["target"])
	assert.Equal(t, from.String(), payload["from"])
}

func TestSendToDisposedOutbox(t *testing.T) {
	reg := presence.NewRegistry()
	user := uuid.New()

	outbox := presence.NewOutbox()
	reg.Register(user, outbox)
	outbox.Close()

	assert.False(t, reg.Send(user, presence.FriendRequestAccept(uuid.New())))
}

func TestRegistryConcurrentReconnects(t *testing.T) {
	reg := presence.NewRegistry()
	user := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ob := presence.NewOutbox()
			if old := reg.Register(user, ob); old != nil {
				old.Close()
			}
			reg.SetActivity(user, &presence.Activity{Title: "x"})
			reg.Send(user, presence.FriendRequest(uuid.New()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Online())
	current, ok := reg.Lookup(user)
	require.True(t, ok)
	assert.False(t, current.Closed())
}

func TestSendCountsNotifications(t *testing.T) {
	reg := presence.NewRegistry()
	online, offline := uuid.New(), uuid.New()
	reg.Register(online, presence.NewOutbox())

	queued := testutil.ToFloat64(metrics.Notifications.WithLabelValues("queued"))
	dropped := testutil.ToFloat64(metrics.Notifications.WithLabelValues("offline"))

	assert.True(t, reg.Send(online, presence.FriendRequest(offline)))
	assert.False(t, reg.Send(offline, presence.FriendRequest(online)))

	assert.Equal(t, queued+1, testutil.ToFloat64(metrics.Notifications.WithLabelValues("queued")))
	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.Notifications.WithLabelValues("offline")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.OnlineUsers))
}
