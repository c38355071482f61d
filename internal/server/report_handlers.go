package server

import (
	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req struct {
		ReportedID uint                `json:"reported_id"`
		Reason     models.ReportReason `json:"reason"`
		Details    string              `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ReportedID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("reported_id is required"))
	}

	report, err := s.reportService.CreateReport(c.Context(), currentUserID(c), req.ReportedID, req.Reason, req.Details)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}
