package store

import (
	"context"

	"campus-connect-go/internal/models"
)

// NotificationStore handles notification record operations (PostgreSQL).
// The unread count is always recomputed from the rows, never stored.
type NotificationStore interface {
	CreateNotification(ctx context.Context, userID int, typ, content string) (models.Notification, error)
	GetNotifications(ctx context.Context, userID, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id int) error
	MarkAllNotificationsRead(ctx context.Context, userID int) error
	DeleteNotification(ctx context.Context, userID, id int) error
	DeleteAllNotifications(ctx context.Context, userID int) error
}

// SubscriptionStore handles push endpoint registration (PostgreSQL)
type SubscriptionStore interface {
	SavePushSubscription(ctx context.Context, userID int, endpoint, p256dh, auth string) error
	GetPushSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, userID int, endpoint string) error
	DeletePushSubscriptions(ctx context.Context, endpoints []string) error
}

// UserStore handles account operations (PostgreSQL)
type UserStore interface {
	CreateUser(ctx context.Context, username, password, role string) (models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser2FA(ctx context.Context, id int, secret string, enabled bool) error
}

// Store is the full persistence surface handlers depend on.
type Store interface {
	NotificationStore
	SubscriptionStore
	UserStore
}
