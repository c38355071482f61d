package server

import (
	"encoding/base64"
	"strings"

	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMessages handles GET /api/matches/:id/messages
//
// Pagination is keyset (before_id) rather than offset: message IDs are the
// conversation's sequence, so clients page backwards from the newest message
// and reconcile gaps after a websocket reconnect the same way.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	matchID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	beforeID := uint(c.QueryInt("before_id", 0))

	messages, err := s.messageService.ListMessages(c.Context(), currentUserID(c), matchID, beforeID, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return c.JSON(fiber.Map{
		"messages": messages,
	})
}

// SendMessage handles POST /api/matches/:id/messages
//
// Text messages carry content; image messages carry the image inline as
// base64 (optionally with a caption in content).
func (s *Server) SendMessage(c *fiber.Ctx) error {
	matchID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Kind        string `json:"kind"`
		Content     string `json:"content"`
		ImageBase64 string `json:"image_base64"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	senderID := currentUserID(c)

	var msg *models.Message
	switch req.Kind {
	case "", string(models.MessageText):
		msg, err = s.messageService.SendText(c.Context(), senderID, matchID, req.Content)
	case string(models.MessageImage):
		data, decodeErr := decodeImageBase64(req.ImageBase64)
		if decodeErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("image_base64 is not valid base64"))
		}
		msg, err = s.messageService.SendImage(c.Context(), senderID, matchID, data, req.Content)
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown message kind"))
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// decodeImageBase64 decodes an inline image payload, tolerating a data URL
// prefix (data:image/jpeg;base64,...) from browser clients.
func decodeImageBase64(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// MarkMessageRead handles POST /api/messages/:id/read
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.messageService.MarkRead(c.Context(), currentUserID(c), messageID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msg)
}

// MarkMatchRead handles POST /api/matches/:id/read
//
// Marks every unread message from the other participant as read in one call.
func (s *Server) MarkMatchRead(c *fiber.Ctx) error {
	matchID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.messageService.MarkMatchRead(c.Context(), currentUserID(c), matchID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"marked_read": count,
	})
}

// GetUnreadCount handles GET /api/messages/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.messageService.UnreadCount(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"unread": count,
	})
}
