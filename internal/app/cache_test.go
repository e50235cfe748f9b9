package app

import (
	"testing"
	"time"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/push"
	"github.com/hashan1998-it/unichat-tui/internal/session"
	"github.com/hashan1998-it/unichat-tui/tests/testutil"
)

// newTestModel builds a root model wired to an in-memory cache. No
// network traffic happens at construction time.
func newTestModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://127.0.0.1:1/api")
	sess := session.NewManager(client)
	pushClient := push.NewClient("ws://127.0.0.1:1/ws", sess)
	return New(client, sess, pushClient, testutil.NewTestStore(t))
}

func TestFeedPersistsAndWarmsFromCache(t *testing.T) {
	m := newTestModel(t)

	m.posts.Replace([]model.Post{
		{
			ID:        "p1",
			Author:    model.User{ID: "u1", Username: "ann"},
			Content:   "hello campus",
			PostType:  model.PostTypeGeneral,
			CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		},
	})

	if msg := m.persistFeed()(); msg != nil {
		t.Fatalf("persistFeed returned unexpected message: %v", msg)
	}

	// A fresh model over the same cache sees the persisted feed.
	m.posts.Replace(nil)
	warmed, ok := m.warmCache()().(cacheWarmedMsg)
	if !ok {
		t.Fatal("warmCache did not return a cacheWarmedMsg")
	}
	if len(warmed.posts) != 1 || warmed.posts[0].ID != "p1" {
		t.Fatalf("warmed posts = %+v, want the persisted post", warmed.posts)
	}
	if warmed.posts[0].Content != "hello campus" {
		t.Fatalf("warmed content = %q", warmed.posts[0].Content)
	}
}

func TestNotificationsPersistAndWarmFromCache(t *testing.T) {
	m := newTestModel(t)

	m.notifications.Replace([]model.Notification{
		{
			ID:        "n1",
			Type:      model.NotificationPostLike,
			Content:   "ann liked your post",
			Read:      false,
			CreatedAt: time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC),
		},
	})

	if msg := m.persistNotifications()(); msg != nil {
		t.Fatalf("persistNotifications returned unexpected message: %v", msg)
	}

	warmed, ok := m.warmCache()().(cacheWarmedMsg)
	if !ok {
		t.Fatal("warmCache did not return a cacheWarmedMsg")
	}
	if len(warmed.notifications) != 1 || warmed.notifications[0].ID != "n1" {
		t.Fatalf("warmed notifications = %+v", warmed.notifications)
	}
	if warmed.notifications[0].Read {
		t.Fatal("warmed notification should still be unread")
	}
}
