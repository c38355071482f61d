package service

import (
	"context"

	"mix/internal/models"
	"mix/internal/repository"
)

// NotificationService exposes the persisted in-app notification feed.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// ListNotifications returns the user's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.notificationRepo.ListForUser(ctx, userID, limit, offset)
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// UnreadCount returns how many unread notifications the user has.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
