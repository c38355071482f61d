package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	ProfileKeyPrefix    = "profile:%d"
	MatchListKeyPrefix  = "user:%d:matches"
	CandidatesKeyPrefix = "user:%d:candidates"
	LikeQuotaKeyPrefix  = "quota:likes:%d:%s"
)

const (
	UserTTL       = 5 * time.Minute
	ProfileTTL    = 5 * time.Minute
	MatchListTTL  = 2 * time.Minute
	CandidatesTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func MatchListKey(userID uint) string {
	return fmt.Sprintf(MatchListKeyPrefix, userID)
}

func CandidatesKey(userID uint) string {
	return fmt.Sprintf(CandidatesKeyPrefix, userID)
}

// LikeQuotaKey returns the daily like counter key for a user. The day string
// is the UTC date in YYYY-MM-DD form so counters roll over at midnight UTC.
func LikeQuotaKey(userID uint, day string) string {
	return fmt.Sprintf(LikeQuotaKeyPrefix, userID, day)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, ProfileKey(userID))
}

func InvalidateMatchList(ctx context.Context, userID uint) {
	Invalidate(ctx, MatchListKey(userID))
}

func InvalidateCandidates(ctx context.Context, userID uint) {
	Invalidate(ctx, CandidatesKey(userID))
}
