package store

import (
	"context"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// Store is the local cache of last-known server state. It is advisory
// only: the server remains the source of truth, and the cache exists
// so the UI can render the previous feed and notification list at
// startup and while offline.
type Store interface {
	UpsertPosts(ctx context.Context, posts []model.Post) error
	GetPosts(ctx context.Context, limit int) ([]model.Post, error)

	UpsertNotifications(ctx context.Context, notifications []model.Notification) error
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)

	Close() error
}
