package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/observability"
	"mix/internal/repository"
)

const maxMessageLength = 2000

// MessageService provides chat message business logic. Every operation
// verifies the caller participates in the match before touching messages.
type MessageService struct {
	messageRepo repository.MessageRepository
	matchRepo   repository.MatchRepository
	photos      *PhotoService
	publisher   RealtimePublisher
}

// NewMessageService returns a new MessageService.
func NewMessageService(
	messageRepo repository.MessageRepository,
	matchRepo repository.MatchRepository,
	photos *PhotoService,
	publisher RealtimePublisher,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		photos:      photos,
		publisher:   publisher,
	}
}

func (s *MessageService) requireParticipant(ctx context.Context, matchID, userID uint) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(userID) {
		return nil, models.NewForbiddenError("Not a participant of this match")
	}
	return match, nil
}

// SendText appends a text message to the match and pushes it to connected
// participants.
func (s *MessageService) SendText(ctx context.Context, senderID, matchID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, models.NewValidationError("Message content too long")
	}

	if _, err := s.requireParticipant(ctx, matchID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		MatchID:  matchID,
		SenderID: senderID,
		Kind:     models.MessageText,
		Content:  content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesTotal.WithLabelValues(string(models.MessageText)).Inc()

	s.publishNewMessage(ctx, msg)
	return msg, nil
}

// SendImage processes an uploaded image and appends an image message carrying
// its content hash and URL. An optional caption rides in Content.
func (s *MessageService) SendImage(ctx context.Context, senderID, matchID uint, data []byte, caption string) (*models.Message, error) {
	if _, err := s.requireParticipant(ctx, matchID, senderID); err != nil {
		return nil, err
	}

	blob, err := s.photos.Process(ctx, senderID, data)
	if err != nil {
		return nil, err
	}

	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > maxMessageLength {
		return nil, models.NewValidationError("Caption too long")
	}

	msg := &models.Message{
		MatchID:   matchID,
		SenderID:  senderID,
		Kind:      models.MessageImage,
		Content:   caption,
		ImageHash: blob.Hash,
		ImageURL:  "/api/media/" + blob.Hash,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesTotal.WithLabelValues(string(models.MessageImage)).Inc()

	s.publishNewMessage(ctx, msg)
	return msg, nil
}

// ListMessages pages backwards through the match history. beforeID 0 starts
// at the newest message; results come back oldest-first.
func (s *MessageService) ListMessages(ctx context.Context, userID, matchID, beforeID uint, limit int) ([]models.Message, error) {
	if _, err := s.requireParticipant(ctx, matchID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByMatch(ctx, matchID, beforeID, limit)
}

// MarkRead flags one message as read by its recipient and notifies the sender.
func (s *MessageService) MarkRead(ctx context.Context, readerID, messageID uint) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireParticipant(ctx, msg.MatchID, readerID); err != nil {
		return nil, err
	}

	read, err := s.messageRepo.MarkRead(ctx, messageID, readerID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMessagesRead(ctx, msg.MatchID, readerID, []uint{messageID}); err != nil {
			middleware.Logger.Warn("publish read receipt failed", "message_id", messageID, "error", err)
		}
	}
	return read, nil
}

// MarkMatchRead flags every unread message addressed to the reader in the
// match, returning how many were flipped.
func (s *MessageService) MarkMatchRead(ctx context.Context, readerID, matchID uint) (int, error) {
	if _, err := s.requireParticipant(ctx, matchID, readerID); err != nil {
		return 0, err
	}

	ids, err := s.messageRepo.MarkMatchRead(ctx, matchID, readerID)
	if err != nil {
		return 0, err
	}

	if len(ids) > 0 && s.publisher != nil {
		if err := s.publisher.PublishMessagesRead(ctx, matchID, readerID, ids); err != nil {
			middleware.Logger.Warn("publish read receipts failed", "match_id", matchID, "error", err)
		}
	}
	return len(ids), nil
}

// UnreadCount returns the user's total unread messages across all matches.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}

func (s *MessageService) publishNewMessage(ctx context.Context, msg *models.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNewMessage(ctx, msg); err != nil {
		middleware.Logger.Warn("publish message failed", "message_id", msg.ID, "error", err)
	}
}
