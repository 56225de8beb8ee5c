package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo users and relations.
//
// Behavior:
//  1. Clears existing data in `relations`, `tokens` and `users`.
//  2. Creates 20 users; every 4th hides its last_online.
//  3. Generates mutual friendships, pending requests and a few blocks.
//
// Returns the created users so callers can issue tokens for them.
func SeedTestData(db *gorm.DB) ([]User, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"relations", "tokens", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	// --- Seed Users ---
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		seen := time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour)
		u := User{
			ID:             uuid.New(),
			Username:       fmt.Sprintf("player%d", i),
			ShowLastOnline: i%4 != 0,
			ShowActivity:   true,
		}
		if u.ShowLastOnline {
			u.LastOnline = &seen
		}
		users = append(users, u)
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	log.Println("Seeded 20 users.")

	// --- Seed Relations ---
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_id"}, {Name: "to_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}
	put := func(from, to uuid.UUID, state RelationState) error {
		return db.Clauses(upsert).Create(&Relation{FromID: from, ToID: to, State: state}).Error
	}

	for i := range users {
		for j := 0; j < 4; j++ {
			k := r.Intn(len(users))
			if k == i {
				continue
			}
			a, b := users[i].ID, users[k].ID

			var err error
			switch n := r.Intn(100); {
			case n < 50: // mutual friends
				if err = put(a, b, RelationFriend); err == nil {
					err = put(b, a, RelationFriend)
				}
			case n < 85: // pending request, only towards strangers
				var reverse int64
				if err = db.Model(&Relation{}).Where("from_id = ? AND to_id = ?", b, a).Count(&reverse).Error; err == nil && reverse == 0 {
					err = put(a, b, RelationRequest)
				}
			default: // block clears whatever b had towards a
				if err = put(a, b, RelationBlocked); err == nil {
					err = db.Where("from_id = ? AND to_id = ? AND state <> ?", b, a, RelationBlocked).
						Delete(&Relation{}).Error
				}
			}
			if err != nil {
				return nil, fmt.Errorf("failed to seed relation: %w", err)
			}
		}
	}

	return users, nil
}
