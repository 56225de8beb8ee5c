package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"

	"github.com/oggyb/presence-gateway/internal/db"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

// DefaultTokenTTL is how long an issued access token stays valid.
const DefaultTokenTTL = 30 * 24 * time.Hour

// Verifier resolves access tokens to user identities.
//
// Tokens travel as unpadded standard base64 of 32 random bytes; only their
// blake2b-256 digest is persisted.
type Verifier struct {
	db  *gorm.DB
	now func() time.Time
}

func NewVerifier(database *gorm.DB) *Verifier {
	return &Verifier{db: database, now: time.Now}
}

// HashToken returns the hex digest stored for a raw token.
func HashToken(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Issue creates a new token for user and returns its wire form.
func (v *Verifier) Issue(ctx context.Context, user uuid.UUID, ttl time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := db.Token{
		Hash:      HashToken(raw),
		UserID:    user,
		ExpiresAt: v.now().UTC().Add(ttl),
	}
	if err := v.db.WithContext(ctx).Create(&token).Error; err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(raw), nil
}

// Verify returns the user owning token.
//
// Behavior:
//   - Rejects malformed, unknown, revoked and expired tokens with ErrUnauthenticated.
//   - Stamps tokens.used_at, and users.last_online when the user allows it,
//     in the same transaction as the lookup.
func (v *Verifier) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil || len(raw) == 0 {
		return uuid.Nil, svcErr.ErrUnauthenticated
	}
	hash := HashToken(raw)
	now := v.now().UTC()

	var user uuid.UUID
	err = v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t db.Token
		err := tx.Where("hash = ? AND revoked = ? AND expires_at > ?", hash, false, now).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.ErrUnauthenticated
		} else if err != nil {
			return err
		}

		if err := tx.Model(&db.Token{}).Where("hash = ?", hash).Update("used_at", now).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.User{}).
			Where("id = ? AND show_last_online = ?", t.UserID, true).
			Update("last_online", now).Error; err != nil {
			return err
		}
		user = t.UserID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return user, nil
}

// RevokeAll invalidates every token of user.
func (v *Verifier) RevokeAll(ctx context.Context, user uuid.UUID) error {
	return v.db.WithContext(ctx).Model(&db.Token{}).
		Where("user_id = ?", user).
		Update("revoked", true).Error
}
