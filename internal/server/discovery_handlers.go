package server

import (
	"github.com/gofiber/fiber/v2"
)

const defaultFeedLimit = 20

// GetDiscoveryFeed handles GET /api/discovery
//
// The feed is computed fresh on every request: a recorded swipe must remove
// the profile from the very next fetch, so candidates are never cached.
func (s *Server) GetDiscoveryFeed(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultFeedLimit)
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	feed, err := s.discoveryService.GetFeed(c.Context(), currentUserID(c), limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feed)
}
