package connection

import (
	"context"
	"errors"
	"testing"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

const (
	selfID = "me"
	peerID = "them"
)

// fakeAPI implements the API interface against in-memory server state.
type fakeAPI struct {
	self    model.User
	peer    model.User
	pending []model.ConnectionRequest

	sendErr   error
	accepted  []string
	rejected  []string
	cancelled []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		self: model.User{ID: selfID, Username: "me"},
		peer: model.User{ID: peerID, Username: "them"},
	}
}

func (f *fakeAPI) Profile(ctx context.Context, userID string) (*model.User, error) {
	switch userID {
	case selfID:
		u := f.self
		return &u, nil
	case peerID:
		u := f.peer
		return &u, nil
	}
	return nil, errors.New("no such user")
}

func (f *fakeAPI) PendingConnections(ctx context.Context) ([]model.ConnectionRequest, error) {
	return f.pending, nil
}

func (f *fakeAPI) SendConnection(ctx context.Context, userID string) (*model.ConnectionRequest, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	req := model.ConnectionRequest{
		ID:       "req-1",
		Sender:   f.self,
		Receiver: f.peer,
		Status:   model.RequestStatusPending,
	}
	f.pending = append(f.pending, req)
	return &req, nil
}

func (f *fakeAPI) AcceptConnection(ctx context.Context, requestID string) error {
	f.accepted = append(f.accepted, requestID)
	f.pending = nil
	return nil
}

func (f *fakeAPI) RejectConnection(ctx context.Context, requestID string) error {
	f.rejected = append(f.rejected, requestID)
	f.pending = nil
	return nil
}

func (f *fakeAPI) CancelConnection(ctx context.Context, requestID string) error {
	f.cancelled = append(f.cancelled, requestID)
	f.pending = nil
	return nil
}

func TestSendCancelRoundTrip(t *testing.T) {
	api := newFakeAPI()
	tr := NewTracker(api, selfID, peerID)
	ctx := context.Background()

	if err := tr.Send(ctx); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := tr.State(); got != StatePending {
		t.Fatalf("state after send = %s, want pending", got)
	}

	if err := tr.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := tr.State(); got != StateNone {
		t.Fatalf("state after cancel = %s, want none", got)
	}

	// Cancelling again with nothing outstanding is absorbed silently.
	if err := tr.Cancel(ctx); err != nil {
		t.Fatalf("repeated Cancel surfaced error: %v", err)
	}
	if got := tr.State(); got != StateNone {
		t.Fatalf("state after repeated cancel = %s, want none", got)
	}
}

func TestCancelWithRequestGoneServerSide(t *testing.T) {
	api := newFakeAPI()
	tr := NewTracker(api, selfID, peerID)
	ctx := context.Background()

	if err := tr.Send(ctx); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The server lost the request (e.g. the peer rejected meanwhile)
	// and the tracker's remembered id no longer matters: forget it and
	// make the lookup come up empty.
	api.pending = nil
	tr.mu.Lock()
	tr.requestID = ""
	tr.mu.Unlock()

	if err := tr.Cancel(ctx); err != nil {
		t.Fatalf("Cancel with no matching request: %v", err)
	}
	if got := tr.State(); got != StateNone {
		t.Fatalf("state = %s, want none", got)
	}
	if len(api.cancelled) != 0 {
		t.Fatalf("cancel endpoint called %d times for a vanished request", len(api.cancelled))
	}
}

func TestSendRejectedByServerLeavesStateUnchanged(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = errors.New("already connected")
	tr := NewTracker(api, selfID, peerID)

	if err := tr.Send(context.Background()); err == nil {
		t.Fatal("Send should surface the server rejection")
	}
	if got := tr.State(); got != StateNone {
		t.Fatalf("state after rejected send = %s, want none", got)
	}
}

func TestLoadDerivesStates(t *testing.T) {
	ctx := context.Background()

	t.Run("connected via connections array", func(t *testing.T) {
		api := newFakeAPI()
		api.peer.Connections = []string{selfID}
		tr := NewTracker(api, selfID, peerID)
		if err := tr.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := tr.State(); got != StateConnected {
			t.Fatalf("state = %s, want connected", got)
		}
	})

	t.Run("pending when we sent", func(t *testing.T) {
		api := newFakeAPI()
		api.pending = []model.ConnectionRequest{{
			ID: "req-7", Sender: api.self, Receiver: api.peer,
			Status: model.RequestStatusPending,
		}}
		tr := NewTracker(api, selfID, peerID)
		if err := tr.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := tr.State(); got != StatePending {
			t.Fatalf("state = %s, want pending", got)
		}
	})

	t.Run("received when they sent", func(t *testing.T) {
		api := newFakeAPI()
		api.pending = []model.ConnectionRequest{{
			ID: "req-8", Sender: api.peer, Receiver: api.self,
			Status: model.RequestStatusPending,
		}}
		tr := NewTracker(api, selfID, peerID)
		if err := tr.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := tr.State(); got != StateReceived {
			t.Fatalf("state = %s, want received", got)
		}
	})

	t.Run("none otherwise", func(t *testing.T) {
		api := newFakeAPI()
		tr := NewTracker(api, selfID, peerID)
		if err := tr.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := tr.State(); got != StateNone {
			t.Fatalf("state = %s, want none", got)
		}
	})
}

func TestAcceptFromReceived(t *testing.T) {
	api := newFakeAPI()
	api.pending = []model.ConnectionRequest{{
		ID: "req-9", Sender: api.peer, Receiver: api.self,
		Status: model.RequestStatusPending,
	}}
	tr := NewTracker(api, selfID, peerID)
	ctx := context.Background()

	if err := tr.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := tr.Accept(ctx); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got := tr.State(); got != StateConnected {
		t.Fatalf("state = %s, want connected", got)
	}
	if len(api.accepted) != 1 || api.accepted[0] != "req-9" {
		t.Fatalf("accept endpoint calls = %v, want [req-9]", api.accepted)
	}
}

func TestRejectFromReceived(t *testing.T) {
	api := newFakeAPI()
	api.pending = []model.ConnectionRequest{{
		ID: "req-10", Sender: api.peer, Receiver: api.self,
		Status: model.RequestStatusPending,
	}}
	tr := NewTracker(api, selfID, peerID)
	ctx := context.Background()

	if err := tr.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := tr.Reject(ctx); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got := tr.State(); got != StateNone {
		t.Fatalf("state = %s, want none", got)
	}
}

func TestSendFromReceivedIsRejected(t *testing.T) {
	api := newFakeAPI()
	api.pending = []model.ConnectionRequest{{
		ID: "req-11", Sender: api.peer, Receiver: api.self,
		Status: model.RequestStatusPending,
	}}
	tr := NewTracker(api, selfID, peerID)
	ctx := context.Background()

	if err := tr.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := tr.Send(ctx)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Send from received = %v, want ErrInvalidTransition", err)
	}
	if got := tr.State(); got != StateReceived {
		t.Fatalf("state changed to %s", got)
	}
}

func TestConnectedIsTerminal(t *testing.T) {
	api := newFakeAPI()
	api.self.Connections = []string{peerID}
	tr := NewTracker(api, selfID, peerID)
	ctx := context.Background()

	if err := tr.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tr.State(); got != StateConnected {
		t.Fatalf("state = %s, want connected", got)
	}

	for name, op := range map[string]func(context.Context) error{
		"send":   tr.Send,
		"accept": tr.Accept,
		"reject": tr.Reject,
	} {
		if err := op(ctx); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s from connected = %v, want ErrInvalidTransition", name, err)
		}
	}
}

func TestInFlightGuardRejectsReentry(t *testing.T) {
	api := newFakeAPI()
	tr := NewTracker(api, selfID, peerID)

	// Simulate a transition still in flight.
	if err := tr.begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tr.Send(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("Send while busy = %v, want ErrBusy", err)
	}
	tr.settle()

	if err := tr.Send(context.Background()); err != nil {
		t.Fatalf("Send after settle: %v", err)
	}
}
