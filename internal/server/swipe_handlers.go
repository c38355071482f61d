package server

import (
	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateSwipe handles POST /api/swipes
//
// A mutual like creates the match in the same request; the response carries
// it so the client can celebrate without a follow-up fetch.
func (s *Server) CreateSwipe(c *fiber.Ctx) error {
	var req struct {
		TargetID uint               `json:"target_id"`
		Action   models.SwipeAction `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.TargetID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("target_id is required"))
	}

	userID := currentUserID(c)
	if req.Action == models.SwipeSuperlike && !s.flags.Enabled("superlike", userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Superlikes are not available on this account yet"))
	}

	result, err := s.swipeService.RecordSwipe(c.Context(), userID, req.TargetID, req.Action)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// RewindSwipe handles POST /api/swipes/rewind
func (s *Server) RewindSwipe(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if !s.flags.Enabled("rewind", userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Rewind is not available on this account yet"))
	}

	swipe, err := s.swipeService.RewindLastSwipe(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"rewound": swipe,
	})
}
