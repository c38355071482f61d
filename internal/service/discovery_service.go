package service

import (
	"context"
	"time"

	"mix/internal/models"
	"mix/internal/repository"
)

// DiscoveryFeed is the candidate feed plus the viewer's remaining like quota.
type DiscoveryFeed struct {
	Candidates     []models.User `json:"candidates"`
	LikesRemaining int           `json:"likes_remaining"`
}

// DiscoveryService assembles the swipeable candidate feed.
type DiscoveryService struct {
	discoveryRepo repository.DiscoveryRepository
	userRepo      repository.UserRepository
	quota         *QuotaService
	now           func() time.Time
}

// NewDiscoveryService returns a new DiscoveryService.
func NewDiscoveryService(
	discoveryRepo repository.DiscoveryRepository,
	userRepo repository.UserRepository,
	quota *QuotaService,
) *DiscoveryService {
	return &DiscoveryService{
		discoveryRepo: discoveryRepo,
		userRepo:      userRepo,
		quota:         quota,
		now:           time.Now,
	}
}

// GetFeed returns candidates for the viewer with profile ages computed.
// Candidates are never cached: a swipe must immediately remove the profile
// from the next fetch.
func (s *DiscoveryService) GetFeed(ctx context.Context, viewerID uint, limit int) (*DiscoveryFeed, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer.Status != models.UserStatusActive {
		return nil, models.NewForbiddenError("Account is not active")
	}

	candidates, err := s.discoveryRepo.Candidates(ctx, viewerID, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range candidates {
		if candidates[i].Profile != nil {
			candidates[i].Profile.ComputeAge(now)
		}
	}

	return &DiscoveryFeed{
		Candidates:     candidates,
		LikesRemaining: s.quota.Remaining(ctx, viewer),
	}, nil
}
