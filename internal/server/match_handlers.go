package server

import (
	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMatches handles GET /api/matches
func (s *Server) GetMatches(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	matches, err := s.matchService.ListMatches(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"matches": matches,
	})
}

// GetMatch handles GET /api/matches/:id
func (s *Server) GetMatch(c *fiber.Ctx) error {
	matchID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	match, err := s.matchService.GetMatch(c.Context(), currentUserID(c), matchID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(match)
}

// Unmatch handles DELETE /api/matches/:id
//
// Unmatching removes the match and the whole conversation for both users.
func (s *Server) Unmatch(c *fiber.Ctx) error {
	matchID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.matchService.Unmatch(c.Context(), currentUserID(c), matchID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BlockUser handles POST /api/blocks/:userId
func (s *Server) BlockUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.matchService.BlockUser(c.Context(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"blocked": targetID,
	})
}

// UnblockUser handles DELETE /api/blocks/:userId
//
// Unblocking never restores a dissolved match; the pair has to like each
// other again.
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.matchService.UnblockUser(c.Context(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetBlockedUsers handles GET /api/blocks
func (s *Server) GetBlockedUsers(c *fiber.Ctx) error {
	blocks, err := s.matchService.ListBlocked(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if blocks == nil {
		blocks = []models.UserBlock{}
	}
	return c.JSON(fiber.Map{
		"blocks": blocks,
	})
}
