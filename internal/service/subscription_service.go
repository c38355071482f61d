package service

import (
	"context"
	"time"

	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/repository"
)

// ProviderEvent is one webhook event from the payment provider, already
// verified and decoded by the transport layer.
type ProviderEvent struct {
	EventID                string
	EventType              string
	UserID                 uint
	Tier                   models.SubscriptionTier
	ProviderSubscriptionID string
	ProviderCustomerID     string
	CurrentPeriodEnd       *time.Time
}

// Provider event types the service understands. Anything else is logged and
// acknowledged so the provider stops retrying.
const (
	ProviderEventSubscriptionCreated  = "subscription.created"
	ProviderEventSubscriptionUpdated  = "subscription.updated"
	ProviderEventSubscriptionCanceled = "subscription.canceled"
	ProviderEventPaymentFailed        = "payment.failed"
)

// SubscriptionService applies payment provider webhook events to user tiers.
// The provider itself is an opaque collaborator; this service never calls out
// to it.
type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	userRepo repository.UserRepository
}

// NewSubscriptionService returns a new SubscriptionService.
func NewSubscriptionService(subRepo repository.SubscriptionRepository, userRepo repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{subRepo: subRepo, userRepo: userRepo}
}

// ApplyProviderEvent applies one webhook event. Replayed events (same
// EventID) are acknowledged without effect. Returns whether the event was
// applied.
func (s *SubscriptionService) ApplyProviderEvent(ctx context.Context, evt ProviderEvent) (bool, error) {
	if evt.EventID == "" {
		return false, models.NewValidationError("Provider event ID is required")
	}

	applied, err := s.subRepo.RecordProviderEvent(ctx, evt.EventID, evt.EventType)
	if err != nil {
		return false, err
	}
	if !applied {
		middleware.Logger.Info("skipping replayed provider event",
			"event_id", evt.EventID, "event_type", evt.EventType)
		return false, nil
	}

	switch evt.EventType {
	case ProviderEventSubscriptionCreated, ProviderEventSubscriptionUpdated:
		return true, s.activate(ctx, evt)
	case ProviderEventSubscriptionCanceled:
		return true, s.deactivate(ctx, evt, models.SubscriptionCanceled)
	case ProviderEventPaymentFailed:
		return true, s.deactivate(ctx, evt, models.SubscriptionPastDue)
	default:
		middleware.Logger.Warn("ignoring unknown provider event type",
			"event_id", evt.EventID, "event_type", evt.EventType)
		return true, nil
	}
}

func (s *SubscriptionService) activate(ctx context.Context, evt ProviderEvent) error {
	tier := evt.Tier
	switch tier {
	case models.TierPlus, models.TierGold:
	default:
		return models.NewValidationError("Unknown subscription tier")
	}

	sub := &models.Subscription{
		UserID:                 evt.UserID,
		Tier:                   tier,
		Status:                 models.SubscriptionActive,
		ProviderSubscriptionID: evt.ProviderSubscriptionID,
		ProviderCustomerID:     evt.ProviderCustomerID,
		CurrentPeriodEnd:       evt.CurrentPeriodEnd,
	}
	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return err
	}
	return s.setUserTier(ctx, evt.UserID, tier)
}

func (s *SubscriptionService) deactivate(ctx context.Context, evt ProviderEvent, status models.SubscriptionStatus) error {
	userID := evt.UserID
	sub, err := s.resolveSubscription(ctx, evt)
	if err != nil {
		return err
	}
	if sub != nil {
		userID = sub.UserID
		sub.Status = status
		// Past-due keeps the tier until the period lapses; cancellation
		// downgrades immediately.
		if status == models.SubscriptionCanceled {
			sub.Tier = models.TierFree
		}
		if err := s.subRepo.Upsert(ctx, sub); err != nil {
			return err
		}
	}
	if status == models.SubscriptionCanceled && userID != 0 {
		return s.setUserTier(ctx, userID, models.TierFree)
	}
	return nil
}

func (s *SubscriptionService) resolveSubscription(ctx context.Context, evt ProviderEvent) (*models.Subscription, error) {
	if evt.ProviderSubscriptionID != "" {
		sub, err := s.subRepo.GetByProviderSubscriptionID(ctx, evt.ProviderSubscriptionID)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	if evt.UserID != 0 {
		return s.subRepo.GetByUserID(ctx, evt.UserID)
	}
	return nil, nil
}

func (s *SubscriptionService) setUserTier(ctx context.Context, userID uint, tier models.SubscriptionTier) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Tier == tier {
		return nil
	}
	user.Tier = tier
	return s.userRepo.Update(ctx, user)
}

// GetStatus returns the user's current subscription, or a synthetic free-tier
// view when no provider subscription exists.
func (s *SubscriptionService) GetStatus(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &models.Subscription{
			UserID: userID,
			Tier:   models.TierFree,
			Status: models.SubscriptionExpired,
		}, nil
	}
	return sub, nil
}

// ExpireLapsedSubscriptions downgrades active subscriptions whose billing
// period has ended. Intended to run periodically from the server loop.
func (s *SubscriptionService) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	return s.subRepo.ExpireLapsed(ctx, now)
}
