package connection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// parkingAPI lets SendConnection park in flight so a second invocation
// can be attempted before the first settles.
type parkingAPI struct {
	mu      sync.Mutex
	sends   int
	entered chan struct{}
	release chan struct{}
}

func (f *parkingAPI) Profile(ctx context.Context, userID string) (*model.User, error) {
	return &model.User{ID: userID, Username: userID}, nil
}

func (f *parkingAPI) PendingConnections(ctx context.Context) ([]model.ConnectionRequest, error) {
	return nil, nil
}

func (f *parkingAPI) SendConnection(ctx context.Context, userID string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()
	f.entered <- struct{}{}
	<-f.release
	return &model.ConnectionRequest{ID: "req-1", Status: model.RequestStatusPending}, nil
}

func (f *parkingAPI) AcceptConnection(ctx context.Context, requestID string) error { return nil }
func (f *parkingAPI) RejectConnection(ctx context.Context, requestID string) error { return nil }
func (f *parkingAPI) CancelConnection(ctx context.Context, requestID string) error { return nil }

func TestRegistrySharesTrackerPerPeer(t *testing.T) {
	reg := NewRegistry(newFakeAPI(), selfID)

	if reg.Tracker(peerID) != reg.Tracker(peerID) {
		t.Fatal("same peer should resolve to the same tracker")
	}
	if reg.Tracker(peerID) == reg.Tracker("someone-else") {
		t.Fatal("distinct peers should not share a tracker")
	}
}

func TestGuardHoldsAcrossRepeatedInvocations(t *testing.T) {
	api := &parkingAPI{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	reg := NewRegistry(api, selfID)
	ctx := context.Background()

	// First invocation runs the full load-then-send sequence the views
	// use, with the send parked mid-flight.
	first := make(chan error, 1)
	go func() {
		tr := reg.Tracker(peerID)
		if err := tr.Load(ctx); err != nil {
			first <- err
			return
		}
		first <- tr.Send(ctx)
	}()
	<-api.entered

	// A second invocation before the first settles must be rejected by
	// the shared tracker rather than firing the mutation again.
	tr := reg.Tracker(peerID)
	err := tr.Load(ctx)
	if err == nil {
		err = tr.Send(ctx)
	}
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second invocation = %v, want ErrBusy", err)
	}

	close(api.release)
	if err := <-first; err != nil {
		t.Fatalf("first invocation: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.sends != 1 {
		t.Fatalf("send endpoint fired %d times for one peer, want 1", api.sends)
	}
}
