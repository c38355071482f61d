package service

import (
	"context"
	"encoding/json"

	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/observability"
	"mix/internal/repository"
)

// SwipeResult is the outcome of recording a swipe.
type SwipeResult struct {
	Swipe   *models.Swipe `json:"swipe"`
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

// SwipeService provides the swipe and match-creation business logic.
type SwipeService struct {
	swipeRepo        repository.SwipeRepository
	matchRepo        repository.MatchRepository
	userRepo         repository.UserRepository
	blockRepo        repository.BlockRepository
	notificationRepo repository.NotificationRepository
	quota            *QuotaService
	publisher        RealtimePublisher
}

// NewSwipeService returns a new SwipeService.
func NewSwipeService(
	swipeRepo repository.SwipeRepository,
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	notificationRepo repository.NotificationRepository,
	quota *QuotaService,
	publisher RealtimePublisher,
) *SwipeService {
	return &SwipeService{
		swipeRepo:        swipeRepo,
		matchRepo:        matchRepo,
		userRepo:         userRepo,
		blockRepo:        blockRepo,
		notificationRepo: notificationRepo,
		quota:            quota,
		publisher:        publisher,
	}
}

// RecordSwipe records a decision from swiperID toward swipedID. A like that
// meets an existing like back creates the match; exactly one match exists per
// pair regardless of ordering or concurrent requests.
func (s *SwipeService) RecordSwipe(ctx context.Context, swiperID, swipedID uint, action models.SwipeAction) (*SwipeResult, error) {
	if swiperID == swipedID {
		return nil, models.NewValidationError("Cannot swipe on yourself")
	}
	if !action.Valid() {
		return nil, models.NewValidationError("Unknown swipe action")
	}

	swiper, err := s.userRepo.GetByID(ctx, swiperID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, swipedID)
	if err != nil {
		return nil, err
	}
	if target.Status != models.UserStatusActive {
		return nil, models.NewNotFoundError("User", swipedID)
	}

	blocked, err := s.blockRepo.Exists(ctx, swiperID, swipedID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, models.NewForbiddenError("Cannot swipe on this user")
	}

	if action == models.SwipeSuperlike && !swiper.CanRewind() {
		// Superlikes ship with the same tier as rewind.
		return nil, models.NewForbiddenError("Superlikes require a Gold subscription")
	}

	// Quota applies to likes only; passing is always free. Re-liking an
	// already-liked profile does not double-charge.
	if action.IsLike() {
		prev, err := s.swipeRepo.Get(ctx, swiperID, swipedID)
		if err != nil {
			return nil, err
		}
		if prev == nil || !prev.Action.IsLike() {
			if err := s.quota.ConsumeLike(ctx, swiper); err != nil {
				observability.QuotaRejectionsTotal.Inc()
				return nil, err
			}
		}
	}

	swipe := &models.Swipe{SwiperID: swiperID, SwipedID: swipedID, Action: action}
	if err := s.swipeRepo.Upsert(ctx, swipe); err != nil {
		return nil, err
	}
	observability.SwipesTotal.WithLabelValues(string(action)).Inc()

	result := &SwipeResult{Swipe: swipe}
	if !action.IsLike() {
		return result, nil
	}

	likedBack, err := s.swipeRepo.LikedBy(ctx, swipedID, swiperID)
	if err != nil {
		return nil, err
	}
	if !likedBack {
		if action == models.SwipeSuperlike {
			s.storeNotification(ctx, swipedID, models.NotificationSuperlike, map[string]uint{"from_user_id": swiperID})
		}
		return result, nil
	}

	match, created, err := s.matchRepo.Create(ctx, swiperID, swipedID)
	if err != nil {
		return nil, err
	}
	result.Matched = true
	result.Match = match

	if created {
		observability.MatchesCreatedTotal.Inc()
		s.storeNotification(ctx, swiperID, models.NotificationNewMatch, map[string]uint{"match_id": match.ID, "with_user_id": swipedID})
		s.storeNotification(ctx, swipedID, models.NotificationNewMatch, map[string]uint{"match_id": match.ID, "with_user_id": swiperID})
		if s.publisher != nil {
			if err := s.publisher.PublishNewMatch(ctx, match); err != nil {
				middleware.Logger.Warn("publish new match failed", "match_id", match.ID, "error", err)
			}
		}
	}

	return result, nil
}

// RewindLastSwipe undoes the swiper's most recent decision. Gold feature.
// Rewinding a like that already produced a match does not dissolve the match;
// the user can unmatch explicitly.
func (s *SwipeService) RewindLastSwipe(ctx context.Context, swiperID uint) (*models.Swipe, error) {
	swiper, err := s.userRepo.GetByID(ctx, swiperID)
	if err != nil {
		return nil, err
	}
	if !swiper.CanRewind() {
		return nil, models.NewForbiddenError("Rewind requires a Gold subscription")
	}

	last, err := s.swipeRepo.GetLatest(ctx, swiperID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, models.NewNotFoundError("Swipe", swiperID)
	}

	match, err := s.matchRepo.GetByPair(ctx, swiperID, last.SwipedID)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return nil, models.NewConflictError("Cannot rewind a swipe that created a match")
	}

	if err := s.swipeRepo.Delete(ctx, last.ID); err != nil {
		return nil, err
	}

	if last.Action.IsLike() {
		s.quota.RefundLike(ctx, swiper)
	}
	return last, nil
}

func (s *SwipeService) storeNotification(ctx context.Context, userID uint, kind models.NotificationKind, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	n := &models.Notification{UserID: userID, Kind: kind, Payload: raw}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		middleware.Logger.Warn("store notification failed", "user_id", userID, "kind", string(kind), "error", err)
	}
}
