package server

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"mix/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createMatch(t *testing.T, db *gorm.DB, a, b *models.User) *models.Match {
	t.Helper()
	// BeforeCreate normalizes the pair ordering.
	match := &models.Match{UserAID: a.ID, UserBID: b.ID}
	require.NoError(t, db.Create(match).Error)
	return match
}

func TestSendAndListMessages(t *testing.T) {
	s, app, db := newTestServer(t)
	alice := createProfiledUser(t, db, "alice@example.com", "Alice")
	bob := createProfiledUser(t, db, "bob@example.com", "Bob")
	outsider := createProfiledUser(t, db, "mallory@example.com", "Mallory")
	match := createMatch(t, db, alice, bob)

	aliceToken := tokenFor(t, s, alice)
	bobToken := tokenFor(t, s, bob)
	base := "/api/matches/" + itoaUint(match.ID)

	t.Run("send text", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, base+"/messages", aliceToken, map[string]interface{}{
			"content": "hey bob",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "hey bob", body["content"])
		assert.Equal(t, "text", body["kind"])
		assert.Equal(t, false, body["is_read"])
	})

	t.Run("empty text rejected", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, base+"/messages", aliceToken, map[string]interface{}{
			"content": "   ",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("outsider cannot read or write", func(t *testing.T) {
		outToken := tokenFor(t, s, outsider)
		resp, _ := doJSON(t, app, http.MethodPost, base+"/messages", outToken, map[string]interface{}{
			"content": "let me in",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodGet, base+"/messages", outToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("list and mark read", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, base+"/messages", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		messages := body["messages"].([]interface{})
		require.Len(t, messages, 1)

		resp, body = doJSON(t, app, http.MethodGet, "/api/messages/unread-count", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 1, body["unread"], 0.1)

		resp, body = doJSON(t, app, http.MethodPost, base+"/read", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 1, body["marked_read"], 0.1)

		resp, body = doJSON(t, app, http.MethodGet, "/api/messages/unread-count", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 0, body["unread"], 0.1)
	})

	t.Run("unmatch deletes conversation", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodDelete, base, aliceToken, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodGet, base+"/messages", bobToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&models.Message{}).Where("match_id = ?", match.ID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func testPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageMessageAndMediaServing(t *testing.T) {
	s, app, db := newTestServer(t)
	alice := createProfiledUser(t, db, "alice@example.com", "Alice")
	bob := createProfiledUser(t, db, "bob@example.com", "Bob")
	match := createMatch(t, db, alice, bob)
	token := tokenFor(t, s, alice)
	base := "/api/matches/" + itoaUint(match.ID)

	encoded := base64.StdEncoding.EncodeToString(testPNG(t, 256))

	resp, body := doJSON(t, app, http.MethodPost, base+"/messages", token, map[string]interface{}{
		"kind":         "image",
		"image_base64": "data:image/png;base64," + encoded,
		"content":      "look at this",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "image", body["kind"])
	hash, _ := body["image_hash"].(string)
	require.Len(t, hash, 64)

	t.Run("serves jpeg by default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/media/"+hash, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "256", resp.Header.Get("X-Image-Width"))
		assert.Contains(t, resp.Header.Get(fiber.HeaderCacheControl), "immutable")
	})

	t.Run("negotiates webp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/media/"+hash, nil)
		req.Header.Set(fiber.HeaderAccept, "image/webp,image/*")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, fiber.HeaderAccept, resp.Header.Get(fiber.HeaderVary))
	})

	t.Run("unknown hash", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/media/"+string(bytes.Repeat([]byte("a"), 64)), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid base64 payload", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, base+"/messages", token, map[string]interface{}{
			"kind":         "image",
			"image_base64": "!!not base64!!",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
