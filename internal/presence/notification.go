package presence

import (
	"time"

	"github.com/google/uuid"
)

// Notification targets written to the gateway as the `target` discriminator.
const (
	TargetFriendRequest         = "friend_request"
	TargetFriendRequestAccept   = "friend_request_accept"
	TargetFriendRequestDeny     = "friend_request_deny"
	TargetFriendRequestWithdraw = "friend_request_withdraw"
	TargetActivityUpdate        = "activity_update"
)

// Activity is the optional rich status a user broadcasts while online.
type Activity struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	StartedAt   time.Time         `json:"started"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Notification is the JSON payload pushed through a user's outbox.
type Notification struct {
	Target   string     `json:"target"`
	From     *uuid.UUID `json:"from,omitempty"`
	User     *uuid.UUID `json:"user,omitempty"`
	Activity *Activity  `json:"activity,omitempty"`
}

func FriendRequest(from uuid.UUID) Notification {
	return Notification{Target: TargetFriendRequest, From: &from}
}

func FriendRequestAccept(from uuid.UUID) Notification {
	return Notification{Target: TargetFriendRequestAccept, From: &from}
}

func FriendRequestDeny(from uuid.UUID) Notification {
	return Notification{Target: TargetFriendRequestDeny, From: &from}
}

func FriendRequestWithdraw(from uuid.UUID) Notification {
	return Notification{Target: TargetFriendRequestWithdraw, From: &from}
}

// ActivityUpdate tells a friend that user changed (or cleared, when nil) its activity.
func ActivityUpdate(user uuid.UUID, activity *Activity) Notification {
	return Notification{Target: TargetActivityUpdate, User: &user, Activity: activity}
}
