package explore

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hashan1998-it/unichat-tui/internal/connection"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// stallingAPI parks SendConnection in flight so a second press can be
// attempted before the first settles.
type stallingAPI struct {
	mu      sync.Mutex
	sends   int
	entered chan struct{}
	release chan struct{}
}

func (f *stallingAPI) Profile(ctx context.Context, userID string) (*model.User, error) {
	return &model.User{ID: userID, Username: userID}, nil
}

func (f *stallingAPI) PendingConnections(ctx context.Context) ([]model.ConnectionRequest, error) {
	return nil, nil
}

func (f *stallingAPI) SendConnection(ctx context.Context, userID string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()
	f.entered <- struct{}{}
	<-f.release
	return &model.ConnectionRequest{ID: "req-1", Status: model.RequestStatusPending}, nil
}

func (f *stallingAPI) AcceptConnection(ctx context.Context, requestID string) error { return nil }
func (f *stallingAPI) RejectConnection(ctx context.Context, requestID string) error { return nil }
func (f *stallingAPI) CancelConnection(ctx context.Context, requestID string) error { return nil }

func (f *stallingAPI) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	return nil, nil
}

func TestRapidConnectPressesFireOneRequest(t *testing.T) {
	api := &stallingAPI{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	reg := connection.NewRegistry(api, "self-1")
	m := New(api, reg, keys.DefaultKeyMap(), "self-1", 80, 24)

	first := m.connAction("peer-1", (*connection.Tracker).Send)
	second := m.connAction("peer-1", (*connection.Tracker).Send)

	done := make(chan tea.Msg, 1)
	go func() { done <- first() }()
	<-api.entered

	// The second press lands while the first is still in flight. It
	// must be rejected without reaching the server.
	msg, ok := second().(ConnActionMsg)
	if !ok {
		t.Fatal("second press did not produce a ConnActionMsg")
	}
	if !errors.Is(msg.Err, connection.ErrBusy) {
		t.Fatalf("second press = %v, want ErrBusy", msg.Err)
	}
	if msg.State != "" {
		t.Fatalf("second press reported state %q, want empty", msg.State)
	}

	close(api.release)
	settled, ok := (<-done).(ConnActionMsg)
	if !ok {
		t.Fatal("first press did not produce a ConnActionMsg")
	}
	if settled.Err != nil {
		t.Fatalf("first press settled with error: %v", settled.Err)
	}
	if settled.State != connection.StatePending {
		t.Fatalf("first press state = %q, want pending", settled.State)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.sends != 1 {
		t.Fatalf("send endpoint fired %d times for one peer, want 1", api.sends)
	}
}

func TestDeriveState(t *testing.T) {
	self := "self-1"
	peer := model.User{ID: "peer-1", Username: "bob"}

	pendingFromSelf := []model.ConnectionRequest{{
		ID:       "r1",
		Sender:   model.User{ID: self},
		Receiver: model.User{ID: peer.ID},
		Status:   model.RequestStatusPending,
	}}
	pendingFromPeer := []model.ConnectionRequest{{
		ID:       "r2",
		Sender:   model.User{ID: peer.ID},
		Receiver: model.User{ID: self},
		Status:   model.RequestStatusPending,
	}}
	rejected := []model.ConnectionRequest{{
		ID:       "r3",
		Sender:   model.User{ID: self},
		Receiver: model.User{ID: peer.ID},
		Status:   model.RequestStatusRejected,
	}}
	otherPeers := []model.ConnectionRequest{{
		ID:       "r4",
		Sender:   model.User{ID: self},
		Receiver: model.User{ID: "someone-else"},
		Status:   model.RequestStatusPending,
	}}

	connectedPeer := peer
	connectedPeer.Connections = []string{self}

	tests := []struct {
		name    string
		user    model.User
		pending []model.ConnectionRequest
		want    connection.State
	}{
		{"no relationship", peer, nil, connection.StateNone},
		{"request sent by self", peer, pendingFromSelf, connection.StatePending},
		{"request received from peer", peer, pendingFromPeer, connection.StateReceived},
		{"rejected request is ignored", peer, rejected, connection.StateNone},
		{"pending with another peer is ignored", peer, otherPeers, connection.StateNone},
		{"already connected", connectedPeer, pendingFromSelf, connection.StateConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveState("self-1", tt.user, tt.pending)
			if got != tt.want {
				t.Fatalf("deriveState() = %q, want %q", got, tt.want)
			}
		})
	}
}
