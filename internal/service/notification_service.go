package service

import (
	"context"
	"errors"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationPageSize = 50

// NotificationPage is a user's newest notifications plus their unread total.
type NotificationPage struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// NotificationService exposes a user's in-app notification inbox.
type NotificationService interface {
	List(ctx context.Context, userID primitive.ObjectID) (*NotificationPage, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
}

type notificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates a new instance of notificationService.
func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID) (*NotificationPage, error) {
	list, err := s.notifications.ListByUser(ctx, userID, notificationPageSize)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return &NotificationPage{Notifications: list, UnreadCount: unread}, nil
}

// MarkRead flips one notification to read. The user scoping means users can
// only touch their own inbox.
func (s *notificationService) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*domain.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.notifications.MarkAllRead(ctx, userID)
}
