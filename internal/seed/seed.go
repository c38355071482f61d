package seed

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"mix/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	ShouldClean bool
}

// Seed populates the database with demo data: users with profiles, a swipe
// mesh, matches for every mutual like, conversations, a few reports and
// subscriptions for the paying users.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db)

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d demo users created", len(users))

	likes, err := createSwipeMesh(f, users)
	if err != nil {
		return fmt.Errorf("failed to create swipes: %w", err)
	}

	matches, err := createMatches(f, users, likes)
	if err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}
	log.Printf("✓ %d matches created", len(matches))

	conversations := 0
	for _, match := range matches {
		// Leave roughly a quarter of the matches as fresh, message-less ones.
		if f.rng.Intn(4) == 0 {
			continue
		}
		if _, err := f.CreateConversation(match, 0); err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		conversations++
	}
	log.Printf("✓ %d conversations created", conversations)

	if err := createReports(f, users); err != nil {
		return fmt.Errorf("failed to create reports: %w", err)
	}

	if err := createSubscriptions(f, users); err != nil {
		return fmt.Errorf("failed to create subscriptions: %w", err)
	}

	if err := createMatchNotifications(db, matches); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE notifications, subscriptions, reports, messages, matches, blocks, swipes, profiles, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// pairKey identifies an unordered user pair.
type pairKey struct{ a, b uint }

func orderedPair(x, y uint) pairKey {
	if x < y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// createSwipeMesh gives every user a handful of swipes toward random others,
// biased toward likes so mutual matches actually happen. Returns the set of
// directed likes keyed by (swiper, swiped).
func createSwipeMesh(f *Factory, users []*models.User) (map[[2]uint]bool, error) {
	likes := make(map[[2]uint]bool)
	seen := make(map[[2]uint]bool)

	for _, swiper := range users {
		swipeCount := 5 + f.rng.Intn(11)
		for j := 0; j < swipeCount; j++ {
			target := users[f.rng.Intn(len(users))]
			key := [2]uint{swiper.ID, target.ID}
			if target.ID == swiper.ID || seen[key] {
				continue
			}
			seen[key] = true

			action := models.SwipeLike
			switch f.rng.Intn(10) {
			case 0:
				action = models.SwipeSuperlike
			case 1, 2, 3:
				action = models.SwipeDislike
			}

			at := time.Now().Add(-time.Duration(f.rng.Intn(14*24)) * time.Hour)
			if _, err := f.CreateSwipe(swiper, target, action, at); err != nil {
				return nil, err
			}
			if action.IsLike() {
				likes[key] = true
			}
		}
	}
	return likes, nil
}

func createMatches(f *Factory, users []*models.User, likes map[[2]uint]bool) ([]*models.Match, error) {
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	matched := make(map[pairKey]bool)
	matches := make([]*models.Match, 0)
	for key := range likes {
		pair := orderedPair(key[0], key[1])
		if matched[pair] || !likes[[2]uint{key[1], key[0]}] {
			continue
		}
		matched[pair] = true

		at := time.Now().Add(-time.Duration(f.rng.Intn(13*24)) * time.Hour)
		match, err := f.CreateMatch(byID[pair.a], byID[pair.b], at)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func createReports(f *Factory, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	count := 1 + len(users)/20
	for i := 0; i < count; i++ {
		reporter := users[f.rng.Intn(len(users))]
		reported := users[f.rng.Intn(len(users))]
		if reporter.ID == reported.ID {
			continue
		}
		if _, err := f.CreateReport(reporter, reported); err != nil {
			return err
		}
	}
	return nil
}

func createSubscriptions(f *Factory, users []*models.User) error {
	for _, user := range users {
		if user.Tier == models.TierFree {
			continue
		}
		if _, err := f.CreateSubscription(user); err != nil {
			return err
		}
	}
	return nil
}

// createMatchNotifications writes an unread new_match notification for both
// sides of every seeded match, mirroring what the live flow produces.
func createMatchNotifications(db *gorm.DB, matches []*models.Match) error {
	for _, match := range matches {
		payload, _ := json.Marshal(map[string]uint{"match_id": match.ID})
		for _, userID := range []uint{match.UserAID, match.UserBID} {
			n := &models.Notification{
				UserID:    userID,
				Kind:      models.NotificationNewMatch,
				Payload:   payload,
				CreatedAt: match.CreatedAt,
			}
			if err := db.Create(n).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
