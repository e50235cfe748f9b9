// Package feed holds the in-memory post list and merges push-delivered
// mutations into it. Every merge operation is idempotent: applying the
// same event twice leaves the list exactly as applying it once.
package feed

import (
	"sync"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// List is the locally held feed, chronologically descending. ApplyX
// methods run on the push read loop while the UI reads snapshots, so
// state is mutex-guarded.
type List struct {
	mu       sync.Mutex
	posts    []model.Post
	onChange func()
}

// NewList creates an empty feed list.
func NewList() *List {
	return &List{}
}

// OnChange registers a callback invoked after every mutation. It runs
// with the list unlocked.
func (l *List) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Replace substitutes the whole list, e.g. after a REST feed load.
func (l *List) Replace(posts []model.Post) {
	l.mu.Lock()
	l.posts = append([]model.Post(nil), posts...)
	l.mu.Unlock()
	l.notifyChange()
}

// ApplyNewPost inserts a pushed post at the head of the feed. A post
// whose id is already present is a duplicate push and is ignored.
func (l *List) ApplyNewPost(post model.Post) {
	l.mu.Lock()
	if l.indexOf(post.ID) >= 0 {
		l.mu.Unlock()
		return
	}
	l.posts = append([]model.Post{post}, l.posts...)
	l.mu.Unlock()
	l.notifyChange()
}

// ApplyPostUpdate replaces the entry whose id matches the pushed post.
// If the post is not currently in the feed it is not inserted: the
// feed's ordering and filter criteria decided it does not belong, and
// an update does not change that.
func (l *List) ApplyPostUpdate(post model.Post) {
	l.mu.Lock()
	i := l.indexOf(post.ID)
	if i < 0 {
		l.mu.Unlock()
		return
	}
	l.posts[i] = post
	l.mu.Unlock()
	l.notifyChange()
}

// ApplyNewComment appends a comment to the matching post. Posts not in
// view and comments already present are ignored.
func (l *List) ApplyNewComment(postID string, comment model.Comment) {
	l.mu.Lock()
	i := l.indexOf(postID)
	if i < 0 {
		l.mu.Unlock()
		return
	}
	for _, c := range l.posts[i].Comments {
		if c.ID != "" && c.ID == comment.ID {
			l.mu.Unlock()
			return
		}
	}
	l.posts[i].Comments = append(l.posts[i].Comments, comment)
	l.mu.Unlock()
	l.notifyChange()
}

// Posts returns a snapshot of the feed.
func (l *List) Posts() []model.Post {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Post, len(l.posts))
	copy(out, l.posts)
	return out
}

// Get returns the post with the given id, if present.
func (l *List) Get(postID string) (model.Post, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(postID)
	if i < 0 {
		return model.Post{}, false
	}
	return l.posts[i], true
}

// Len returns the number of posts in the feed.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posts)
}

// indexOf returns the position of a post id, or -1. Caller holds the
// lock.
func (l *List) indexOf(postID string) int {
	for i := range l.posts {
		if l.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func (l *List) notifyChange() {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}
