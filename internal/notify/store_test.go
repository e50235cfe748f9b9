package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// fakeAPI implements the API interface with canned data.
type fakeAPI struct {
	notifications []model.Notification
	unreadCount   int
	countCalls    int
	loadErr       error
	markErr       error
	markedRead    []string
	markedAll     int
}

func (f *fakeAPI) UnreadCount(ctx context.Context) (int, error) {
	f.countCalls++
	return f.unreadCount, nil
}

func (f *fakeAPI) Notifications(ctx context.Context) ([]model.Notification, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.notifications, nil
}

func (f *fakeAPI) MarkNotificationRead(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeAPI) MarkAllNotificationsRead(ctx context.Context) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markedAll++
	return nil
}

func notif(id string, read bool) model.Notification {
	return model.Notification{
		ID:        id,
		Type:      model.NotificationPostLike,
		Content:   "content for " + id,
		Read:      read,
		CreatedAt: time.Now(),
	}
}

// checkInvariant verifies unreadCount == |{n : !n.read}|.
func checkInvariant(t *testing.T, s *Store) {
	t.Helper()
	unread := 0
	for _, n := range s.Notifications() {
		if !n.Read {
			unread++
		}
	}
	if got := s.UnreadCount(); got != unread {
		t.Fatalf("unread count invariant broken: counter=%d, list has %d unread", got, unread)
	}
}

func TestReceiveIsIdempotent(t *testing.T) {
	s := NewStore(&fakeAPI{})

	s.Receive(notif("n1", false))
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("unread after first receive = %d, want 1", got)
	}
	if got := len(s.Notifications()); got != 1 {
		t.Fatalf("list length after first receive = %d, want 1", got)
	}

	// Duplicate delivery of the same id must change nothing.
	s.Receive(notif("n1", false))
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("unread after duplicate receive = %d, want 1", got)
	}
	if got := len(s.Notifications()); got != 1 {
		t.Fatalf("list length after duplicate receive = %d, want 1", got)
	}
	checkInvariant(t, s)
}

func TestReceiveReadNotificationDoesNotCount(t *testing.T) {
	s := NewStore(&fakeAPI{})
	s.Receive(notif("n1", true))
	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("unread = %d, want 0 for an already-read notification", got)
	}
	checkInvariant(t, s)
}

func TestLoadThenPushDeduplicates(t *testing.T) {
	api := &fakeAPI{notifications: []model.Notification{
		notif("n1", false),
		notif("n2", true),
	}}
	s := NewStore(api)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("unread after load = %d, want 1", got)
	}

	// Push re-delivers an id the fetch already returned.
	s.Receive(notif("n1", false))
	if got, want := s.UnreadCount(), 1; got != want {
		t.Fatalf("unread after duplicate push = %d, want %d", got, want)
	}
	if got := len(s.Notifications()); got != 2 {
		t.Fatalf("list length after duplicate push = %d, want 2", got)
	}

	// A genuinely new push lands at the head.
	s.Receive(notif("n3", false))
	if got := s.UnreadCount(); got != 2 {
		t.Fatalf("unread after new push = %d, want 2", got)
	}
	list := s.Notifications()
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	want := []string{"n3", "n1", "n2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("list order = %v, want %v", ids, want)
		}
	}
	checkInvariant(t, s)
}

func TestLoadKeepsPushArrivalsNotInSnapshot(t *testing.T) {
	api := &fakeAPI{notifications: []model.Notification{notif("n1", false)}}
	s := NewStore(api)

	// A push that lands before (or during) the fetch must not be lost
	// when the fetched snapshot does not include it yet.
	s.Receive(notif("n9", false))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(s.Notifications()); got != 2 {
		t.Fatalf("list length = %d, want 2 (pushed n9 + fetched n1)", got)
	}
	if got := s.UnreadCount(); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}

	// Re-delivering the pushed id after the load is still a duplicate.
	s.Receive(notif("n9", false))
	if got := len(s.Notifications()); got != 2 {
		t.Fatalf("list length after re-delivery = %d, want 2", got)
	}
	checkInvariant(t, s)
}

func TestMarkReadDecrementsAtMostOnce(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api)
	s.Receive(notif("n1", false))
	s.Receive(notif("n2", false))

	if err := s.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("unread after mark = %d, want 1", got)
	}

	// Marking the same notification again must not decrement further.
	if err := s.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead repeat: %v", err)
	}
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("unread after repeated mark = %d, want 1", got)
	}
	checkInvariant(t, s)
}

func TestMarkReadNeverGoesNegative(t *testing.T) {
	s := NewStore(&fakeAPI{})
	s.Receive(notif("n1", true))

	_ = s.MarkRead(context.Background(), "n1")
	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("unread = %d, want 0", got)
	}
	checkInvariant(t, s)
}

func TestMarkReadKeepsLocalStateOnRESTFailure(t *testing.T) {
	api := &fakeAPI{markErr: errors.New("boom")}
	s := NewStore(api)
	s.Receive(notif("n1", false))

	err := s.MarkRead(context.Background(), "n1")
	if err == nil {
		t.Fatal("MarkRead should surface the REST error")
	}

	// The optimistic local change is kept and stays consistent.
	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("unread after failed mark = %d, want 0", got)
	}
	checkInvariant(t, s)
}

func TestMarkAllRead(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api)
	s.Receive(notif("n1", false))
	s.Receive(notif("n2", false))
	s.Receive(notif("n3", true))

	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("unread after mark all = %d, want 0", got)
	}
	for _, n := range s.Notifications() {
		if !n.Read {
			t.Fatalf("notification %s still unread after mark all", n.ID)
		}
	}
	if api.markedAll != 1 {
		t.Fatalf("bulk REST update issued %d times, want 1", api.markedAll)
	}
	checkInvariant(t, s)
}

func TestVerifyUnreadLeavesDerivedCountAuthoritative(t *testing.T) {
	api := &fakeAPI{unreadCount: 7}
	s := NewStore(api)
	s.Receive(notif("n1", false))

	// The server disagreeing with the list is logged, never adopted.
	s.VerifyUnread(context.Background())
	if api.countCalls != 1 {
		t.Fatalf("count endpoint called %d times, want 1", api.countCalls)
	}
	if got := s.UnreadCount(); got != 1 {
		t.Fatalf("unread after verify = %d, want 1", got)
	}
	checkInvariant(t, s)
}

func TestOnChangeFires(t *testing.T) {
	s := NewStore(&fakeAPI{})
	fired := 0
	s.OnChange(func() { fired++ })

	s.Receive(notif("n1", false))
	if fired != 1 {
		t.Fatalf("OnChange fired %d times after receive, want 1", fired)
	}

	// A duplicate is a no-op and must not wake the UI.
	s.Receive(notif("n1", false))
	if fired != 1 {
		t.Fatalf("OnChange fired %d times after duplicate, want 1", fired)
	}
}
