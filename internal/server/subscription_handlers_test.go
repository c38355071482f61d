package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionWebhook(t *testing.T) {
	s, app, db := newTestServer(t)
	user := createUser(t, db, "payer@example.com", models.RoleMember)
	token := tokenFor(t, s, user)

	event := map[string]interface{}{
		"event_id":                 "evt_001",
		"event_type":               "subscription.created",
		"user_id":                  user.ID,
		"tier":                     "gold",
		"provider_subscription_id": "sub_abc",
	}

	resp, body := doJSON(t, app, http.MethodPost, "/api/subscriptions/webhook", "", event)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["applied"])

	// The tier upgrade is immediately visible.
	resp, sub := doJSON(t, app, http.MethodGet, "/api/subscriptions/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gold", sub["tier"])

	// Replaying the same event is acknowledged but not applied twice.
	resp, body = doJSON(t, app, http.MethodPost, "/api/subscriptions/webhook", "", event)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["applied"])

	// Cancellation downgrades to free.
	resp, body = doJSON(t, app, http.MethodPost, "/api/subscriptions/webhook", "", map[string]interface{}{
		"event_id":                 "evt_002",
		"event_type":               "subscription.canceled",
		"provider_subscription_id": "sub_abc",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["applied"])

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, models.TierFree, fresh.Tier)
}

func TestSubscriptionWebhookSignature(t *testing.T) {
	s, app, _ := newTestServer(t)
	s.config.WebhookSecret = "whsec_test"

	payload, err := json.Marshal(map[string]interface{}{
		"event_id":   "evt_sig",
		"event_type": "noop.event",
	})
	require.NoError(t, err)

	post := func(signature string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/webhook", bytes.NewReader(payload))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if signature != "" {
			req.Header.Set("X-Webhook-Signature", signature)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, post("").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, post("deadbeef").StatusCode)

	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(payload)
	assert.Equal(t, http.StatusOK, post(hex.EncodeToString(mac.Sum(nil))).StatusCode)
}

func TestGetSubscriptionWithoutRow(t *testing.T) {
	s, app, db := newTestServer(t)
	user := createUser(t, db, "nosub@example.com", models.RoleMember)

	resp, sub := doJSON(t, app, http.MethodGet, "/api/subscriptions/me", tokenFor(t, s, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "free", sub["tier"])
}
