package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"mix/internal/cache"
	"mix/internal/config"
	"mix/internal/database"
	"mix/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and runs the optional
// development admin bootstrap. Redis may come back nil when unreachable;
// callers degrade to polling-free operation in that case.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, r, nil
}

// ensureDevAdmin guarantees user ID 1 is an active admin in development so a
// fresh database is immediately usable for moderation work. No-op outside the
// development profile.
func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@mix.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.First(&admin, 1).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				ID:       1,
				Email:    email,
				Password: string(hashedPassword),
				Role:     models.RoleAdmin,
				Status:   models.UserStatusActive,
				Tier:     models.TierFree,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{"role": models.RoleAdmin, "status": models.UserStatusActive}
			if cfg.DevAdminForceCredentials {
				updates["email"] = email
				updates["password"] = string(hashedPassword)
			}
			if err := tx.Model(&models.User{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
				return err
			}
		}

		// Ensure users ID sequence is not behind explicit ID insertion.
		// This is PostgreSQL-specific.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(`
				SELECT setval(
					pg_get_serial_sequence('users', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1),
					true
				)
			`).Error; err != nil {
				return fmt.Errorf("failed to reset users sequence: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	log.Printf("development admin bootstrap ensured for user ID 1 (%s)", email)
	return nil
}
