package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/presence-gateway/internal/db"
	"github.com/oggyb/presence-gateway/internal/utils/pagination"
)

// RelationRepository provides data access methods for the Relation model.
// Rows are directed: (from, to) and (to, from) are stored independently.
type RelationRepository struct {
	db *gorm.DB
}

// NewRelationRepository creates a new repository bound to the given DB connection.
func NewRelationRepository(database *gorm.DB) *RelationRepository {
	return &RelationRepository{db: database}
}

// WithTx returns a repository running on tx.
func (r *RelationRepository) WithTx(tx *gorm.DB) *RelationRepository {
	return &RelationRepository{db: tx}
}

// Get returns the state of from -> to, RelationNone when no row exists.
// The row is read with FOR UPDATE where the dialect supports it.
func (r *RelationRepository) Get(ctx context.Context, from, to uuid.UUID) (db.RelationState, error) {
	// absent rows are the common case between strangers, so no ErrRecordNotFound round trip
	var rel db.Relation
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("from_id = ? AND to_id = ?", from, to).
		Limit(1).
		Find(&rel)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return db.RelationNone, nil
	}
	return rel.State, nil
}

// Put inserts or updates from -> to. Putting RelationNone deletes the row.
//
// Example:
//
//	repo.Put(ctx, a, b, db.RelationRequest) // a asked b to be friends
func (r *RelationRepository) Put(ctx context.Context, from, to uuid.UUID, state db.RelationState) error {
	if state == db.RelationNone {
		return r.Delete(ctx, from, to)
	}
	rel := db.Relation{FromID: from, ToID: to, State: state}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_id"}, {Name: "to_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
		}).
		Create(&rel).Error
}

// Delete removes from -> to if present.
func (r *RelationRepository) Delete(ctx context.Context, from, to uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("from_id = ? AND to_id = ?", from, to).
		Delete(&db.Relation{}).Error
}

// List returns the outgoing relations of user in the given state.
//
// Behavior:
//   - Ordered by updated_at DESC, to_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.List(ctx, me, db.RelationFriend, nil, 50) // first 50 friends
func (r *RelationRepository) List(
	ctx context.Context,
	user uuid.UUID,
	state db.RelationState,
	paginationToken *string,
	limit int,
) ([]db.Relation, *string, error) {
	var relations []db.Relation

	cursor, err := pagination.Decode(getString(paginationToken), string(state))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("from_id = ? AND state = ?", user, state).
		Order("updated_at DESC, to_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.UpdatedUnix).UTC()
		query = query.Where(
			"(updated_at < ? OR (updated_at = ? AND to_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&relations).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(relations) > limit {
		last := relations[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			Scope:       string(state),
			UserID:      last.ToID.String(),
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		relations = relations[:limit]
	}

	return relations, nextToken, nil
}

// Incoming returns the users holding state towards user.
func (r *RelationRepository) Incoming(ctx context.Context, user uuid.UUID, state db.RelationState) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&db.Relation{}).
		Where("to_id = ? AND state = ?", user, state).
		Order("updated_at DESC").
		Pluck("from_id", &ids).Error
	return ids, err
}

// Outgoing returns the users user holds state towards, unpaginated.
func (r *RelationRepository) Outgoing(ctx context.Context, user uuid.UUID, state db.RelationState) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&db.Relation{}).
		Where("from_id = ? AND state = ?", user, state).
		Order("updated_at DESC").
		Pluck("to_id", &ids).Error
	return ids, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
