package server

import (
	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetReports handles GET /api/admin/reports
func (s *Server) GetReports(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	status := models.ReportStatus(c.Query("status"))

	reports, total, err := s.reportService.ListReports(c.Context(), status, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
	})
}

// GetReport handles GET /api/admin/reports/:id
func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.reportService.GetReport(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status models.ReportStatus `json:"status"`
		Notes  string              `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.ResolveReport(c.Context(), id, req.Status, req.Notes)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// GetUsers handles GET /api/admin/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	users, err := s.userService.ListUsers(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
	})
}

// SetUserStatus handles POST /api/admin/users/:id/status
//
// The moderation lever: suspend, ban, or reinstate an account.
func (s *Server) SetUserStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status models.UserStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SetUserStatus(c.Context(), id, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
