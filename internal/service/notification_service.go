package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type NotificationService interface {
	// Notify persists and publishes a notification. Failures are logged,
	// never returned, and self-notifications are dropped.
	Notify(ctx context.Context, notification *model.Notification)
	List(ctx context.Context, userID uint, limit, offset int) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uint) error
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	Subscribe(ctx context.Context, userID uint) (*redis.PubSub, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	redisClient *redis.Client
	log         *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, log *logger.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		log:         log,
	}
}

func notificationChannel(userID uint) string {
	return fmt.Sprintf("user_notifications:%d", userID)
}

func (s *notificationService) Notify(ctx context.Context, notification *model.Notification) {
	if notification.ActorID != nil && *notification.ActorID == notification.UserID {
		return
	}
	if notification.Priority == "" {
		notification.Priority = PriorityNormal
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		s.log.Warn("failed to store notification", "user_id", notification.UserID, "type", notification.NotificationType, "error", err)
		return
	}

	if s.redisClient == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		s.log.Warn("failed to encode notification", "notification_id", notification.ID, "error", err)
		return
	}
	if err := s.redisClient.Publish(ctx, notificationChannel(notification.UserID), payload).Err(); err != nil {
		s.log.Warn("failed to publish notification", "notification_id", notification.ID, "error", err)
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]model.Notification, error) {
	return s.repo.ListByUser(ctx, userID, repository.Page{Limit: limit, Offset: offset})
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Notification not found")
	}
	if notification.UserID != userID {
		return apperror.Forbidden("You can only update your own notifications")
	}
	return notFound(s.repo.MarkAsRead(ctx, id, userID), "Notification not found")
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// Subscribe opens the caller's pub/sub channel for the websocket stream.
func (s *notificationService) Subscribe(ctx context.Context, userID uint) (*redis.PubSub, error) {
	if s.redisClient == nil {
		return nil, apperror.Unavailable("Realtime notifications are not available")
	}
	pubsub := s.redisClient.Subscribe(ctx, notificationChannel(userID))
	// Wait for the subscription to be confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, apperror.New(http.StatusServiceUnavailable, "Realtime notifications are not available", errors.Join(apperror.ErrUnavailable, err))
	}
	return pubsub, nil
}
