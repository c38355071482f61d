package server

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetMedia handles GET /api/media/:hash
//
// Serves the processed image in WebP when the client advertises support,
// falling back to JPEG. Content is addressed by hash, so responses are
// immutable and cacheable forever.
func (s *Server) GetMedia(c *fiber.Ctx) error {
	hash := c.Params("hash")

	format := "jpeg"
	if strings.Contains(c.Get(fiber.HeaderAccept), "image/webp") {
		format = "webp"
	}

	blob, path, err := s.photoService.ResolveForServing(c.Context(), hash, format)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Set("X-Image-Width", strconv.Itoa(blob.Width))
	c.Set("X-Image-Height", strconv.Itoa(blob.Height))
	// Vary on Accept: the same URL serves two encodings.
	c.Set(fiber.HeaderVary, fiber.HeaderAccept)

	return c.SendFile(path)
}
