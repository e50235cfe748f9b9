package feed

import (
	"reflect"
	"testing"
	"time"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

func post(id, content string) model.Post {
	return model.Post{
		ID:        id,
		Content:   content,
		PostType:  model.PostTypeGeneral,
		CreatedAt: time.Now(),
	}
}

func ids(l *List) []string {
	posts := l.Posts()
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestApplyNewPostPrepends(t *testing.T) {
	l := NewList()
	l.Replace([]model.Post{post("p1", "first")})

	l.ApplyNewPost(post("p2", "second"))
	if got, want := ids(l), []string{"p2", "p1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("feed order = %v, want %v", got, want)
	}
}

func TestApplyNewPostDuplicateIsNoop(t *testing.T) {
	l := NewList()
	l.ApplyNewPost(post("p1", "first"))
	l.ApplyNewPost(post("p1", "first again"))

	if l.Len() != 1 {
		t.Fatalf("feed length = %d, want 1", l.Len())
	}
	got, _ := l.Get("p1")
	if got.Content != "first" {
		t.Fatalf("duplicate push replaced content: %q", got.Content)
	}
}

func TestApplyPostUpdateIsIdempotent(t *testing.T) {
	l := NewList()
	l.Replace([]model.Post{post("p1", "original"), post("p2", "other")})

	updated := post("p1", "edited")
	updated.Likes = []string{"u1", "u2"}

	l.ApplyPostUpdate(updated)
	first := l.Posts()

	// Applying the identical payload again must yield identical state.
	l.ApplyPostUpdate(updated)
	second := l.Posts()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second application changed state:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	got, _ := l.Get("p1")
	if got.Content != "edited" || len(got.Likes) != 2 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestApplyPostUpdateUnknownIDIsNoop(t *testing.T) {
	l := NewList()
	l.Replace([]model.Post{post("p1", "first")})

	// An update for a post not currently in view must not insert it.
	l.ApplyPostUpdate(post("p9", "unseen"))

	if got, want := ids(l), []string{"p1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("feed = %v, want %v (no insertion)", got, want)
	}
}

func TestApplyNewComment(t *testing.T) {
	l := NewList()
	l.Replace([]model.Post{post("p1", "first")})

	c := model.Comment{ID: "c1", Content: "nice"}
	l.ApplyNewComment("p1", c)

	got, _ := l.Get("p1")
	if len(got.Comments) != 1 || got.Comments[0].Content != "nice" {
		t.Fatalf("comment not appended: %+v", got.Comments)
	}

	// Same comment id delivered again is a duplicate.
	l.ApplyNewComment("p1", c)
	got, _ = l.Get("p1")
	if len(got.Comments) != 1 {
		t.Fatalf("duplicate comment appended: %d comments", len(got.Comments))
	}

	// Comment for a post not in view is dropped.
	l.ApplyNewComment("p9", model.Comment{ID: "c2", Content: "lost"})
	if l.Len() != 1 {
		t.Fatalf("feed length changed to %d", l.Len())
	}
}

func TestReplaceSnapshotIsolated(t *testing.T) {
	l := NewList()
	src := []model.Post{post("p1", "first")}
	l.Replace(src)

	// Mutating the caller's slice must not affect the list.
	src[0].Content = "mutated"
	got, _ := l.Get("p1")
	if got.Content != "first" {
		t.Fatalf("list aliases caller slice: %q", got.Content)
	}
}
