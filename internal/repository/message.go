package repository

import (
	"context"
	"errors"
	"time"

	"mix/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// ListByMatch pages backwards through history: beforeID 0 means newest.
	// Messages are returned in chronological order.
	ListByMatch(ctx context.Context, matchID uint, beforeID uint, limit int) ([]models.Message, error)
	// MarkRead flags a single message read if readerID is the recipient.
	MarkRead(ctx context.Context, id, readerID uint) (*models.Message, error)
	// MarkMatchRead flags all unread messages sent to readerID in the match.
	// Returns the IDs that were flipped.
	MarkMatchRead(ctx context.Context, matchID, readerID uint) ([]uint, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *messageRepository) ListByMatch(ctx context.Context, matchID uint, beforeID uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Where("match_id = ?", matchID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var messages []models.Message
	if err := q.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	// Fetched newest-first for the page boundary; clients expect oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id, readerID uint) (*models.Message, error) {
	msg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.SenderID == readerID {
		return nil, models.NewForbiddenError("Cannot mark own message as read")
	}
	if msg.IsRead {
		return msg, nil
	}

	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	msg.IsRead = true
	msg.ReadAt = &now
	return msg, nil
}

func (r *messageRepository) MarkMatchRead(ctx context.Context, matchID, readerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("match_id = ? AND sender_id != ? AND is_read = ?", matchID, readerID, false).
		Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Joins("JOIN matches ON matches.id = messages.match_id").
		Where("(matches.user_a_id = ? OR matches.user_b_id = ?)", userID, userID).
		Where("messages.sender_id != ? AND messages.is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
