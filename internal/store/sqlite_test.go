package store

import (
	"context"
	"testing"
	"time"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	posts := []model.Post{
		{
			ID:       "p1",
			Author:   model.User{ID: "u1", Username: "ann", Role: model.RoleStudent},
			Content:  "older",
			PostType: model.PostTypeAcademic,
			Likes:    []string{"u2", "u3"},
			Comments: []model.Comment{{ID: "c1", Content: "hi"}},
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:        "p2",
			Author:    model.User{ID: "u2", Username: "bob", Role: model.RoleProfessor},
			Content:   "newer",
			PostType:  model.PostTypeGeneral,
			CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
	}
	if err := s.UpsertPosts(ctx, posts); err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}

	got, err := s.GetPosts(ctx, 0)
	if err != nil {
		t.Fatalf("GetPosts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "p2" || got[1].ID != "p1" {
		t.Fatalf("order = [%s %s], want newest first", got[0].ID, got[1].ID)
	}
	p1 := got[1]
	if p1.Author.Username != "ann" || len(p1.Likes) != 2 || len(p1.Comments) != 1 {
		t.Fatalf("post p1 lost fields: %+v", p1)
	}
}

func TestUpsertPostsReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := model.Post{ID: "p1", Content: "v1", CreatedAt: time.Now().UTC()}
	if err := s.UpsertPosts(ctx, []model.Post{p}); err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}
	p.Content = "v2"
	p.Likes = []string{"u1"}
	if err := s.UpsertPosts(ctx, []model.Post{p}); err != nil {
		t.Fatalf("UpsertPosts update: %v", err)
	}

	got, err := s.GetPosts(ctx, 10)
	if err != nil {
		t.Fatalf("GetPosts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (replaced, not duplicated)", len(got))
	}
	if got[0].Content != "v2" || len(got[0].Likes) != 1 {
		t.Fatalf("post not replaced: %+v", got[0])
	}
}

func TestNotificationCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ns := []model.Notification{
		{
			ID:        "n1",
			Type:      model.NotificationConnectionRequest,
			Content:   "ann wants to connect",
			Link:      "/profile/u1",
			Read:      false,
			CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        "n2",
			Type:      model.NotificationPostLike,
			Content:   "bob liked your post",
			Read:      true,
			CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	if err := s.UpsertNotifications(ctx, ns); err != nil {
		t.Fatalf("UpsertNotifications: %v", err)
	}

	got, err := s.GetNotifications(ctx, 0)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "n1" {
		t.Fatalf("order = [%s %s], want newest first", got[0].ID, got[1].ID)
	}
	if got[0].Type != model.NotificationConnectionRequest || got[0].Read {
		t.Fatalf("notification n1 lost fields: %+v", got[0])
	}
	if !got[1].Read {
		t.Fatal("read flag not persisted")
	}
}

func TestNotificationWithoutIDGetsLocalOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := model.Notification{Content: "anonymous", CreatedAt: time.Now().UTC()}
	if err := s.UpsertNotifications(ctx, []model.Notification{n}); err != nil {
		t.Fatalf("UpsertNotifications: %v", err)
	}

	got, err := s.GetNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(got) != 1 || got[0].ID == "" {
		t.Fatalf("expected a generated id, got %+v", got)
	}
}
