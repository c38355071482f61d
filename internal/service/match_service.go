package service

import (
	"context"

	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/repository"
)

// MatchService provides match listing, unmatching, and blocking logic.
type MatchService struct {
	matchRepo repository.MatchRepository
	blockRepo repository.BlockRepository
	userRepo  repository.UserRepository
	publisher RealtimePublisher
}

// NewMatchService returns a new MatchService.
func NewMatchService(
	matchRepo repository.MatchRepository,
	blockRepo repository.BlockRepository,
	userRepo repository.UserRepository,
	publisher RealtimePublisher,
) *MatchService {
	return &MatchService{
		matchRepo: matchRepo,
		blockRepo: blockRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// ListMatches returns the user's matches with last message and unread counts.
func (s *MatchService) ListMatches(ctx context.Context, userID uint, limit, offset int) ([]models.Match, error) {
	return s.matchRepo.ListForUser(ctx, userID, limit, offset)
}

// GetMatch returns a single match the user participates in.
func (s *MatchService) GetMatch(ctx context.Context, userID, matchID uint) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(userID) {
		return nil, models.NewForbiddenError("Not a participant of this match")
	}
	return match, nil
}

// Unmatch dissolves the match and deletes its message history. Either
// participant can unmatch; the operation is irreversible.
func (s *MatchService) Unmatch(ctx context.Context, userID, matchID uint) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.HasParticipant(userID) {
		return models.NewForbiddenError("Not a participant of this match")
	}

	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishUnmatch(ctx, match); err != nil {
			middleware.Logger.Warn("publish unmatch failed", "match_id", matchID, "error", err)
		}
	}
	return nil
}

// BlockUser blocks the target and dissolves any match with them. The block
// also removes both users from each other's discovery feeds.
func (s *MatchService) BlockUser(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return models.NewValidationError("Cannot block yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	if err := s.blockRepo.Create(ctx, userID, targetID); err != nil {
		return err
	}

	match, err := s.matchRepo.GetByPair(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if match != nil {
		if err := s.matchRepo.Delete(ctx, match.ID); err != nil {
			return err
		}
		if s.publisher != nil {
			if err := s.publisher.PublishUnmatch(ctx, match); err != nil {
				middleware.Logger.Warn("publish unmatch failed", "match_id", match.ID, "error", err)
			}
		}
	}
	return nil
}

// UnblockUser removes the user's block on the target. Matches dissolved by
// the block stay dissolved.
func (s *MatchService) UnblockUser(ctx context.Context, userID, targetID uint) error {
	return s.blockRepo.Delete(ctx, userID, targetID)
}

// ListBlocked returns users the given user has blocked.
func (s *MatchService) ListBlocked(ctx context.Context, userID uint) ([]models.UserBlock, error) {
	return s.blockRepo.ListForUser(ctx, userID)
}
