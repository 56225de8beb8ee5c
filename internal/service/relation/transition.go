package relation

import (
	"fmt"

	"github.com/oggyb/presence-gateway/internal/db"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	"github.com/oggyb/presence-gateway/internal/presence"
)

// transition is the outcome of applying a desired state to a pair of rows.
type transition struct {
	forward db.RelationState // actor -> target after the change
	reverse db.RelationState // target -> actor after the change
	notify  string           // notification target sent to the target user, "" for none
}

// decide applies the relation table to the current rows.
//
//	desired  | reverse=none           | reverse=request       | reverse=friend        | reverse=blocked
//	---------+------------------------+-----------------------+-----------------------+----------------
//	blocked  | fwd=blocked            | fwd=blocked, rev=none | fwd=blocked, rev=none | fwd=blocked
//	none     | fwd=none (+withdraw)   | both none, deny       | both none             | forbidden
//	request  | fwd=request, request   | both friend, accept   | already friends       | forbidden
//	friend   | forbidden              | both friend, accept   | already friends       | forbidden
func decide(desired, forward, reverse db.RelationState) (transition, error) {
	t := transition{forward: forward, reverse: reverse}

	switch desired {
	case db.RelationBlocked:
		t.forward = db.RelationBlocked
		if reverse.Friendliness() > db.RelationNone.Friendliness() {
			t.reverse = db.RelationNone
		}

	case db.RelationNone:
		switch reverse {
		case db.RelationBlocked:
			return t, svcErr.ErrForbidden
		case db.RelationRequest:
			t.forward, t.reverse = db.RelationNone, db.RelationNone
			t.notify = presence.TargetFriendRequestDeny
		case db.RelationFriend:
			// unfriending removes both directions
			t.forward, t.reverse = db.RelationNone, db.RelationNone
		default:
			if forward == db.RelationRequest {
				t.notify = presence.TargetFriendRequestWithdraw
			}
			t.forward = db.RelationNone
		}

	case db.RelationRequest:
		switch reverse {
		case db.RelationBlocked:
			return t, svcErr.ErrForbidden
		case db.RelationRequest:
			t.forward, t.reverse = db.RelationFriend, db.RelationFriend
			t.notify = presence.TargetFriendRequestAccept
		case db.RelationFriend:
			t.forward = db.RelationFriend
		default:
			if forward != db.RelationRequest {
				t.notify = presence.TargetFriendRequest
			}
			t.forward = db.RelationRequest
		}

	case db.RelationFriend:
		switch reverse {
		case db.RelationRequest:
			t.forward, t.reverse = db.RelationFriend, db.RelationFriend
			t.notify = presence.TargetFriendRequestAccept
		case db.RelationFriend:
			t.forward = db.RelationFriend
		default:
			// strangers cannot be friended unilaterally, blocked parties never
			return t, svcErr.ErrForbidden
		}

	default:
		return t, fmt.Errorf("unknown relation %q: %w", desired, svcErr.ErrForbidden)
	}

	return t, nil
}

// noop reports whether t leaves both rows as they were.
func (t transition) noop(forward, reverse db.RelationState) bool {
	return t.forward == forward && t.reverse == reverse && t.notify == ""
}
