package relation

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/presence-gateway/internal/db"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	"github.com/oggyb/presence-gateway/internal/presence"
	"github.com/oggyb/presence-gateway/internal/repository"
)

// Presence is the slice of the connection registry the store depends on.
type Presence interface {
	Send(user uuid.UUID, n presence.Notification) bool
	Presence(user uuid.UUID) (*presence.Activity, bool)
	SetActivity(user uuid.UUID, activity *presence.Activity) bool
}

// Outcome describes the rows between actor and target after SetRelation.
type Outcome struct {
	Forward db.RelationState
	Reverse db.RelationState
	Changed bool
}

// UserStatus is the public view of a user: online with optional activity,
// or offline with last_online when the user shows it.
type UserStatus struct {
	ID         uuid.UUID
	Username   string
	Online     bool
	Activity   *presence.Activity
	LastOnline *time.Time
}

// Store owns the directed relation state machine and its notification side effects.
type Store struct {
	db        *gorm.DB
	relations *repository.RelationRepository
	users     *repository.UserRepository
	presence  Presence
	logger    *slog.Logger
	locks     pairLocks
}

func NewStore(database *gorm.DB, p Presence, logger *slog.Logger) *Store {
	return &Store{
		db:        database,
		relations: repository.NewRelationRepository(database),
		users:     repository.NewUserRepository(database),
		presence:  p,
		logger:    logger,
	}
}

// SetRelation moves actor -> target towards desired.
//
// Behavior:
//   - Both rows are read and written in one transaction; calls for the same
//     pair are additionally serialized in-process.
//   - Creating the first row towards a stranger requires the target to exist.
//   - The notification, if any, is pushed to the target only after commit and
//     only when the target is online.
//
// Errors: ErrSelfRelation, ErrForbidden, ErrNotFound.
func (s *Store) SetRelation(ctx context.Context, actor, target uuid.UUID, desired db.RelationState) (Outcome, error) {
	if actor == target {
		return Outcome{}, svcErr.ErrSelfRelation
	}

	unlock := s.locks.lock(actor, target)
	defer unlock()

	var (
		t       transition
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		relations := s.relations.WithTx(tx)

		forward, err := relations.Get(ctx, actor, target)
		if err != nil {
			return err
		}
		reverse, err := relations.Get(ctx, target, actor)
		if err != nil {
			return err
		}

		t, err = decide(desired, forward, reverse)
		if err != nil {
			return err
		}
		if t.noop(forward, reverse) {
			return nil
		}

		if reverse == db.RelationNone && t.forward != db.RelationNone {
			exists, err := s.users.WithTx(tx).Exists(ctx, target)
			if err != nil {
				return err
			}
			if !exists {
				return svcErr.ErrNotFound
			}
		}

		if t.forward != forward {
			if err := relations.Put(ctx, actor, target, t.forward); err != nil {
				return err
			}
		}
		if t.reverse != reverse {
			if err := relations.Put(ctx, target, actor, t.reverse); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("set relation %s -> %s (%s): %w", actor, target, desired, err)
	}

	if changed && t.notify != "" {
		delivered := s.presence.Send(target, notification(t.notify, actor))
		s.logger.Debug("relation notification", "target", target, "kind", t.notify, "delivered", delivered)
	}

	return Outcome{Forward: t.forward, Reverse: t.reverse, Changed: changed}, nil
}

// Get returns the state actor holds towards target.
func (s *Store) Get(ctx context.Context, actor, target uuid.UUID) (db.RelationState, error) {
	return s.relations.Get(ctx, actor, target)
}

// List returns a page of users that user holds state towards.
func (s *Store) List(
	ctx context.Context,
	user uuid.UUID,
	state db.RelationState,
	paginationToken *string,
	limit int,
) ([]uuid.UUID, *string, error) {
	rows, next, err := s.relations.List(ctx, user, state, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ToID)
	}
	return ids, next, nil
}

// Requests returns pending friend requests: received (in) and sent (out).
func (s *Store) Requests(ctx context.Context, user uuid.UUID) (in, out []uuid.UUID, err error) {
	if in, err = s.relations.Incoming(ctx, user, db.RelationRequest); err != nil {
		return nil, nil, err
	}
	if out, err = s.relations.Outgoing(ctx, user, db.RelationRequest); err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

// Status returns the public presence view of user.
func (s *Store) Status(ctx context.Context, user uuid.UUID) (*UserStatus, error) {
	u, err := s.users.Get(ctx, user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	st := &UserStatus{ID: u.ID, Username: u.Username}
	if activity, online := s.presence.Presence(user); online {
		st.Online = true
		if u.ShowActivity {
			st.Activity = activity
		}
		return st, nil
	}

	if u.ShowLastOnline {
		st.LastOnline = u.LastOnline
	} else if u.LastOnline != nil {
		s.logger.Warn("last_online set while hidden", "user", user)
	}
	return st, nil
}

// SetActivity updates user's activity on its live presence entry and fans it
// out to online friends. Users hiding their activity always broadcast none.
// Returns ErrNotFound when the user holds no gateway connection.
func (s *Store) SetActivity(ctx context.Context, user uuid.UUID, activity *presence.Activity) error {
	u, err := s.users.Get(ctx, user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.ErrNotFound
	} else if err != nil {
		return err
	}
	if !u.ShowActivity {
		activity = nil
	}

	if !s.presence.SetActivity(user, activity) {
		return fmt.Errorf("user %s is offline: %w", user, svcErr.ErrNotFound)
	}

	friends, err := s.relations.Outgoing(ctx, user, db.RelationFriend)
	if err != nil {
		return err
	}
	for _, friend := range friends {
		s.presence.Send(friend, presence.ActivityUpdate(user, activity))
	}
	return nil
}

// UpdateSettings changes privacy flags. Hiding activity clears the live one.
func (s *Store) UpdateSettings(ctx context.Context, user uuid.UUID, settings repository.Settings) error {
	if err := s.users.UpdateSettings(ctx, user, settings); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.ErrNotFound
		}
		return err
	}
	if settings.ShowActivity != nil && !*settings.ShowActivity {
		s.presence.SetActivity(user, nil)
	}
	return nil
}

func notification(target string, from uuid.UUID) presence.Notification {
	switch target {
	case presence.TargetFriendRequestAccept:
		return presence.FriendRequestAccept(from)
	case presence.TargetFriendRequestDeny:
		return presence.FriendRequestDeny(from)
	case presence.TargetFriendRequestWithdraw:
		return presence.FriendRequestWithdraw(from)
	default:
		return presence.FriendRequest(from)
	}
}

// pairLocks serializes SetRelation calls touching the same unordered pair.
type pairLocks struct {
	stripes [64]sync.Mutex
}

func (p *pairLocks) lock(a, b uuid.UUID) func() {
	var mixed [16]byte
	for i := range mixed {
		mixed[i] = a[i] ^ b[i]
	}
	m := &p.stripes[binary.BigEndian.Uint64(mixed[8:])%uint64(len(p.stripes))]
	m.Lock()
	return m.Unlock
}
