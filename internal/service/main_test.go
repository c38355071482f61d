package service

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"mix/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Uint64

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// newTestDB opens a fresh in-memory database per test so tests stay isolated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Profile{}, &models.ProfilePhoto{},
		&models.Swipe{}, &models.Match{}, &models.Message{},
		&models.MessageImageBlob{}, &models.UserBlock{}, &models.Report{},
		&models.Subscription{}, &models.ProviderEventLog{}, &models.Notification{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, tier models.SubscriptionTier) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Password: "hashed-password",
		Role:     models.RoleMember,
		Status:   models.UserStatusActive,
		Tier:     tier,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user %s: %v", email, err)
	}
	return user
}

// publisherStub records realtime pushes so tests can assert on fan-out
// without a running hub.
type publisherStub struct {
	messages    []*models.Message
	newMatches  []*models.Match
	unmatches   []*models.Match
	readBatches [][]uint
}

func (p *publisherStub) PublishNewMessage(_ context.Context, msg *models.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func (p *publisherStub) PublishMessagesRead(_ context.Context, _ uint, _ uint, ids []uint) error {
	p.readBatches = append(p.readBatches, ids)
	return nil
}

func (p *publisherStub) PublishNewMatch(_ context.Context, match *models.Match) error {
	p.newMatches = append(p.newMatches, match)
	return nil
}

func (p *publisherStub) PublishUnmatch(_ context.Context, match *models.Match) error {
	p.unmatches = append(p.unmatches, match)
	return nil
}
