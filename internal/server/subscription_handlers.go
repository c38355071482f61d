package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"mix/internal/models"
	"mix/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSubscription handles GET /api/subscriptions/me
func (s *Server) GetSubscription(c *fiber.Ctx) error {
	sub, err := s.subscriptionService.GetStatus(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(sub)
}

// SubscriptionWebhook handles POST /api/subscriptions/webhook
//
// The payment provider retries until it sees a 2xx, so every event is
// acknowledged once it is persisted or recognized as a replay. Only signature
// and decoding failures earn an error status.
func (s *Server) SubscriptionWebhook(c *fiber.Ctx) error {
	if s.config.WebhookSecret != "" {
		if !verifyWebhookSignature(c.Body(), c.Get("X-Webhook-Signature"), s.config.WebhookSecret) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid webhook signature"))
		}
	}

	var req struct {
		EventID                string                  `json:"event_id"`
		EventType              string                  `json:"event_type"`
		UserID                 uint                    `json:"user_id"`
		Tier                   models.SubscriptionTier `json:"tier"`
		ProviderSubscriptionID string                  `json:"provider_subscription_id"`
		ProviderCustomerID     string                  `json:"provider_customer_id"`
		CurrentPeriodEnd       *time.Time              `json:"current_period_end"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid webhook body"))
	}

	applied, err := s.subscriptionService.ApplyProviderEvent(c.Context(), service.ProviderEvent{
		EventID:                req.EventID,
		EventType:              req.EventType,
		UserID:                 req.UserID,
		Tier:                   req.Tier,
		ProviderSubscriptionID: req.ProviderSubscriptionID,
		ProviderCustomerID:     req.ProviderCustomerID,
		CurrentPeriodEnd:       req.CurrentPeriodEnd,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"received": true,
		"applied":  applied,
	})
}

// verifyWebhookSignature checks the hex HMAC-SHA256 of the raw body.
func verifyWebhookSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
