package service

import (
	"context"
	"time"

	"mix/internal/cache"
	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/repository"
)

// QuotaService enforces the daily like quota for free-tier users. Redis is
// the primary counter; the users table is the durable fallback when Redis is
// down, so the quota cannot be bypassed by knocking the cache over.
type QuotaService struct {
	userRepo repository.UserRepository
	limit    int
	now      func() time.Time
}

// NewQuotaService returns a new QuotaService with the given daily limit.
func NewQuotaService(userRepo repository.UserRepository, limit int) *QuotaService {
	return &QuotaService{
		userRepo: userRepo,
		limit:    limit,
		now:      time.Now,
	}
}

// Limit returns the configured daily like limit.
func (s *QuotaService) Limit() int {
	return s.limit
}

func dayString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func untilMidnightUTC(t time.Time) time.Duration {
	utc := t.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return midnight.Sub(utc)
}

// ConsumeLike spends one like from the user's daily quota. Premium users are
// exempt. Returns a LIMIT_REACHED error when the quota is exhausted.
func (s *QuotaService) ConsumeLike(ctx context.Context, user *models.User) error {
	if user.IsPremium() {
		return nil
	}

	now := s.now()
	key := cache.LikeQuotaKey(user.ID, dayString(now))

	cnt, err := cache.IncrWithTTL(ctx, key, untilMidnightUTC(now))
	if err == nil {
		if cnt > int64(s.limit) {
			return models.NewLimitReachedError("Daily like limit reached")
		}
		return nil
	}

	middleware.Logger.Warn("quota counter unavailable, using database fallback",
		"user_id", user.ID, "error", err)

	allowed, dbErr := s.userRepo.ConsumeDailyLike(ctx, user.ID, s.limit, now)
	if dbErr != nil {
		return dbErr
	}
	if !allowed {
		return models.NewLimitReachedError("Daily like limit reached")
	}
	return nil
}

// RefundLike returns one like to the quota after a rewound like. Best-effort:
// a failed refund never blocks the rewind.
func (s *QuotaService) RefundLike(ctx context.Context, user *models.User) {
	if user.IsPremium() {
		return
	}

	now := s.now()
	cache.DecrFloor(ctx, cache.LikeQuotaKey(user.ID, dayString(now)))
	if err := s.userRepo.RefundDailyLike(ctx, user.ID); err != nil {
		middleware.Logger.Warn("quota refund failed", "user_id", user.ID, "error", err)
	}
}

// Remaining reports how many likes the user has left today. Premium users get
// a negative value meaning unlimited.
func (s *QuotaService) Remaining(ctx context.Context, user *models.User) int {
	if user.IsPremium() {
		return -1
	}

	now := s.now()
	key := cache.LikeQuotaKey(user.ID, dayString(now))

	var used int
	if rdb := cache.GetClient(); rdb != nil {
		if cnt, err := rdb.Get(ctx, key).Int(); err == nil {
			used = cnt
		}
	} else {
		if u, err := s.userRepo.GetByID(ctx, user.ID); err == nil {
			day := now.UTC().Truncate(24 * time.Hour)
			if u.LikesResetAt != nil && !u.LikesResetAt.Before(day) {
				used = u.DailyLikesUsed
			}
		}
	}

	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
