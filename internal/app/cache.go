package app

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// Cache read limits. The cache only needs enough to paint the first
// screen before the network answers.
const (
	cachedPostLimit         = 50
	cachedNotificationLimit = 100
)

// cacheWarmedMsg carries the last-known server state read from the
// local cache at startup.
type cacheWarmedMsg struct {
	posts         []model.Post
	notifications []model.Notification
}

// warmCache reads the cached feed and notifications so the UI has
// something to show while the first fetches are in flight.
func (m Model) warmCache() tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		posts, err := cache.GetPosts(ctx, cachedPostLimit)
		if err != nil {
			log.Printf("cache: read posts: %v", err)
		}
		notifications, err := cache.GetNotifications(ctx, cachedNotificationLimit)
		if err != nil {
			log.Printf("cache: read notifications: %v", err)
		}
		return cacheWarmedMsg{posts: posts, notifications: notifications}
	}
}

// persistFeed writes the current feed snapshot to the cache. Failures
// are logged and otherwise ignored; the cache is advisory.
func (m Model) persistFeed() tea.Cmd {
	cache := m.cache
	posts := m.posts
	return func() tea.Msg {
		if err := cache.UpsertPosts(context.Background(), posts.Posts()); err != nil {
			log.Printf("cache: write posts: %v", err)
		}
		return nil
	}
}

// persistNotifications writes the current notification snapshot to the
// cache.
func (m Model) persistNotifications() tea.Cmd {
	cache := m.cache
	notifications := m.notifications
	return func() tea.Msg {
		err := cache.UpsertNotifications(
			context.Background(),
			notifications.Notifications(),
		)
		if err != nil {
			log.Printf("cache: write notifications: %v", err)
		}
		return nil
	}
}
