package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/presence-gateway/internal/db"
)

// UserRepository wraps account lookups needed by the presence and relation layers.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// WithTx returns a repository running on tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Exists reports whether an account with id exists.
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Get loads a user; gorm.ErrRecordNotFound when absent.
func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchLastOnline records t as the user's last seen time, only if the user
// allows last_online to be shown. Returns whether a row was updated.
func (r *UserRepository) TouchLastOnline(ctx context.Context, id uuid.UUID, t time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ? AND show_last_online = ?", id, true).
		Update("last_online", t.UTC())
	return res.RowsAffected > 0, res.Error
}

// Settings is a partial update of the privacy flags; nil fields are untouched.
type Settings struct {
	ShowLastOnline *bool
	ShowActivity   *bool
}

// UpdateSettings applies s. Hiding last_online also erases the stored value,
// keeping last_online NULL for every user with show_last_online off.
func (r *UserRepository) UpdateSettings(ctx context.Context, id uuid.UUID, s Settings) error {
	updates := map[string]any{}
	if s.ShowLastOnline != nil {
		updates["show_last_online"] = *s.ShowLastOnline
		if !*s.ShowLastOnline {
			updates["last_online"] = nil
		}
	}
	if s.ShowActivity != nil {
		updates["show_activity"] = *s.ShowActivity
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
