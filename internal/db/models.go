package db

import (
	"time"

	"github.com/google/uuid"
)

// User table. ID is the stable 128-bit account identity.
//
// Privacy flags:
//   - ShowLastOnline: persist and expose last_online.
//   - ShowActivity: allow a rich activity to be attached to the presence entry.
type User struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	Username       string    `gorm:"uniqueIndex;size:64;not null"`
	ShowLastOnline bool      `gorm:"not null"`
	ShowActivity   bool      `gorm:"not null"`
	LastOnline     *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// Token is an access token. Only the blake2b-256 digest of the raw token is stored.
type Token struct {
	Hash      string    `gorm:"primaryKey;size:64"`
	UserID    uuid.UUID `gorm:"type:char(36);index;not null"`
	Revoked   bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// RelationState is the stored state of a directed relation row.
// RelationNone is never stored: absence of a row means none.
type RelationState string

const (
	RelationNone    RelationState = "none"
	RelationRequest RelationState = "request"
	RelationFriend  RelationState = "friend"
	RelationBlocked RelationState = "blocked"
)

// Valid reports whether s is one of the known states (including none).
func (s RelationState) Valid() bool {
	switch s {
	case RelationNone, RelationRequest, RelationFriend, RelationBlocked:
		return true
	}
	return false
}

// Friendliness orders None < Request < Friend. Blocked ranks below None.
func (s RelationState) Friendliness() int {
	switch s {
	case RelationRequest:
		return 1
	case RelationFriend:
		return 2
	case RelationBlocked:
		return -1
	default:
		return 0
	}
}

// Relation is a directed edge FromID -> ToID.
//
// Composite PK: (FromID, ToID)
//   - (A,B) and (B,A) are separate rows and may differ while a request is pending.
//
// Indexes:
//   - idx_to_state(to_id, state): incoming requests lookup.
//   - idx_from_state_updated(from_id, state, updated_at DESC): paginated listings.
type Relation struct {
	FromID    uuid.UUID     `gorm:"type:char(36);primaryKey;index:idx_from_state_updated,priority:1"`
	ToID      uuid.UUID     `gorm:"type:char(36);primaryKey;index:idx_to_state,priority:1"`
	State     RelationState `gorm:"size:16;not null;index:idx_to_state,priority:2;index:idx_from_state_updated,priority:2"`
	CreatedAt time.Time     `gorm:"autoCreateTime"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime;index:idx_from_state_updated,priority:3,sort:desc"`
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&User{}, &Token{}, &Relation{}}
}
