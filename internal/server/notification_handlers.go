package server

import (
	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	notifs, err := s.notificationService.ListNotifications(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	return c.JSON(fiber.Map{
		"notifications": notifs,
	})
}

// GetNotificationUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetNotificationUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"unread": count,
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(c.Context(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.notificationService.MarkAllRead(c.Context(), currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
