package presence

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/oggyb/presence-gateway/internal/metrics"
)

type entry struct {
	outbox   *Outbox
	activity *Activity
}

// Registry maps a user to at most one live outbox plus an optional activity.
// It is the single source of truth for "is this user online".
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*entry)}
}

// Register installs outbox as the user's channel with no activity and returns
// the displaced outbox, if any. The caller disposes of the old one.
func (r *Registry) Register(user uuid.UUID, outbox *Outbox) *Outbox {
	r.mu.Lock()
	defer r.mu.Unlock()

	var old *Outbox
	if e, ok := r.entries[user]; ok {
		old = e.outbox
	}
	r.entries[user] = &entry{outbox: outbox}
	metrics.OnlineUsers.Set(float64(len(r.entries)))
	return old
}

// Deregister removes the user's entry only while it still holds outbox.
// A superseded connection calling this is a no-op.
func (r *Registry) Deregister(user uuid.UUID, outbox *Outbox) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[user]
	if !ok || e.outbox != outbox {
		return false
	}
	delete(r.entries, user)
	metrics.OnlineUsers.Set(float64(len(r.entries)))
	return true
}

// SetActivity updates the presence payload of a registered user.
// Returns false, changing nothing, when the user is offline.
func (r *Registry) SetActivity(user uuid.UUID, activity *Activity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[user]
	if !ok {
		return false
	}
	e.activity = activity
	return true
}

// Lookup returns the user's outbox when online.
func (r *Registry) Lookup(user uuid.UUID) (*Outbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[user]
	if !ok {
		return nil, false
	}
	return e.outbox, true
}

// Presence reports whether user is online and, if so, a copy of its activity.
func (r *Registry) Presence(user uuid.UUID) (*Activity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[user]
	if !ok {
		return nil, false
	}
	if e.activity == nil {
		return nil, true
	}
	a := *e.activity
	return &a, true
}

// Online returns the number of registered users.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Send pushes n to user if online. Offline users and closed outboxes are not errors.
func (r *Registry) Send(user uuid.UUID, n Notification) bool {
	outbox, ok := r.Lookup(user)
	if !ok {
		metrics.Notifications.WithLabelValues("offline").Inc()
		return false
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return false
	}
	if !outbox.Push(payload) {
		metrics.Notifications.WithLabelValues("offline").Inc()
		return false
	}
	metrics.Notifications.WithLabelValues("queued").Inc()
	return true
}
