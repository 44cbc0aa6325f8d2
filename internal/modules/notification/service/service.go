package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	notifRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/notification/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NotificationChannel returns the redis pub/sub channel for a user's feed.
func NotificationChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Dismiss(ctx context.Context, userID, notificationID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// CreateNotification persists the notification, then publishes it so any
// connected websocket picks it up. Publishing is best effort.
func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if notification.Type == "" {
		notification.Type = entity.NotificationGeneral
	}
	if notification.Priority == "" {
		notification.Priority = entity.PriorityMedium
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			if err := s.redisClient.Publish(ctx, NotificationChannel(notification.UserID), payload).Err(); err != nil {
				log.Printf("failed to publish notification %s: %v", notification.ID, err)
			}
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]entity.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.requireOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Dismiss(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.requireOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.repo.Dismiss(ctx, notificationID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) requireOwner(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}
	if notification.UserID != userID {
		return fmt.Errorf("notification belongs to another user: %w", apperror.ErrForbidden)
	}
	return nil
}
