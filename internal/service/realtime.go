package service

import (
	"context"

	"mix/internal/models"
)

// RealtimePublisher pushes domain events to connected websocket clients.
// Implementations fan out through Redis pub/sub so every server instance
// reaches its own sockets. A nil publisher disables pushes without touching
// the write path.
type RealtimePublisher interface {
	PublishNewMessage(ctx context.Context, msg *models.Message) error
	PublishMessagesRead(ctx context.Context, matchID, readerID uint, messageIDs []uint) error
	PublishNewMatch(ctx context.Context, match *models.Match) error
	PublishUnmatch(ctx context.Context, match *models.Match) error
}
