// Package notify holds the client-side cache of notifications for the
// signed-in user. The push channel and the REST fetch can both deliver
// the same notification; the store deduplicates by id so repeated
// delivery is harmless, and keeps the unread count consistent with the
// list after every operation.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// API is the slice of the REST surface the store needs. *api.Client
// satisfies it.
type API interface {
	Notifications(ctx context.Context) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Store is the authoritative client-side notification cache. Receive
// runs on the push read loop while Load and the mark operations run
// from the UI, so all state is mutex-guarded.
type Store struct {
	client API

	mu            sync.Mutex
	notifications []model.Notification
	seen          map[string]bool
	unread        int
	onChange      func()
}

// NewStore creates an empty notification store backed by the given
// API client.
func NewStore(client API) *Store {
	return &Store{
		client: client,
		seen:   make(map[string]bool),
	}
}

// OnChange registers a callback invoked after every state change. The
// app model uses it to wake the UI; it runs with the store unlocked.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load fetches the full notification list and replaces local state,
// re-seeding the dedupe set with every fetched id. A push arriving
// mid-fetch is reconciled by the dedupe rule: presence of an id is
// what matters, not which delivery won.
func (s *Store) Load(ctx context.Context) error {
	fetched, err := s.client.Notifications(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	// Keep anything that arrived over the push channel while the
	// fetch was in flight and is not in the fetched snapshot.
	fetchedIDs := make(map[string]bool, len(fetched))
	for _, n := range fetched {
		fetchedIDs[n.ID] = true
	}
	var pushedOnly []model.Notification
	for _, n := range s.notifications {
		if !fetchedIDs[n.ID] {
			pushedOnly = append(pushedOnly, n)
		}
	}

	s.notifications = append(pushedOnly, fetched...)
	s.seen = make(map[string]bool, len(s.notifications))
	s.unread = 0
	for _, n := range s.notifications {
		s.seen[n.ID] = true
		if !n.Read {
			s.unread++
		}
	}
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

// Receive ingests one notification delivered over the push channel.
// If the id is already known the call is a no-op; otherwise the
// notification is prepended and, if unread, counted.
func (s *Store) Receive(n model.Notification) {
	s.mu.Lock()
	if s.seen[n.ID] {
		s.mu.Unlock()
		return
	}
	s.seen[n.ID] = true
	s.notifications = append([]model.Notification{n}, s.notifications...)
	if !n.Read {
		s.unread++
	}
	s.mu.Unlock()

	s.notifyChange()
}

// MarkRead marks one notification read locally and issues the REST
// update. The local change is kept even if the REST call fails; the
// advertised count always matches the list. The unread count is
// decremented at most once per notification.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			if s.unread > 0 {
				s.unread--
			}
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.notifyChange()
	}
	return s.client.MarkNotificationRead(ctx, id)
}

// MarkAllRead marks every notification read locally and issues the
// bulk REST update.
func (s *Store) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.unread = 0
	s.mu.Unlock()

	s.notifyChange()
	return s.client.MarkAllNotificationsRead(ctx)
}

// Replace substitutes the entire local state, e.g. when warming from
// the offline cache before the first fetch completes.
func (s *Store) Replace(notifications []model.Notification) {
	s.mu.Lock()
	s.notifications = append([]model.Notification(nil), notifications...)
	s.seen = make(map[string]bool, len(notifications))
	s.unread = 0
	for _, n := range notifications {
		s.seen[n.ID] = true
		if !n.Read {
			s.unread++
		}
	}
	s.mu.Unlock()

	s.notifyChange()
}

// VerifyUnread cross-checks the locally derived unread count against
// the server's counter and logs any divergence. The list remains the
// source of truth for the badge; this never mutates state.
func (s *Store) VerifyUnread(ctx context.Context) {
	serverCount, err := s.client.UnreadCount(ctx)
	if err != nil {
		log.Printf("notify: unread count check failed: %v", err)
		return
	}

	s.mu.Lock()
	local := s.unread
	s.mu.Unlock()
	if serverCount != local {
		log.Printf("notify: server reports %d unread, local list has %d", serverCount, local)
	}
}

// Notifications returns a snapshot of the list, newest first.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *Store) notifyChange() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
