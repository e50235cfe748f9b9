// Package connection tracks the relationship between the signed-in
// user and one peer as a small state machine: none, pending (we sent),
// received (they sent), connected. The server is the source of truth;
// every transition is a REST round trip and the local state only moves
// after the server acknowledges, never optimistically.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// State is the derived per-peer relationship state. It is recomputed
// from server data, never stored authoritatively.
type State string

const (
	StateNone      State = "none"
	StatePending   State = "pending"
	StateReceived  State = "received"
	StateConnected State = "connected"
)

// ErrInvalidTransition is returned when an action is not valid from
// the current state (e.g. send while a request is already pending).
var ErrInvalidTransition = errors.New("connection: action not valid in current state")

// ErrBusy is returned when a transition is already in flight for this
// peer; duplicate invocations are rejected until the first settles.
var ErrBusy = errors.New("connection: a request is already in flight")

// API is the slice of the REST surface the workflow needs. *api.Client
// satisfies it.
type API interface {
	Profile(ctx context.Context, userID string) (*model.User, error)
	PendingConnections(ctx context.Context) ([]model.ConnectionRequest, error)
	SendConnection(ctx context.Context, userID string) (*model.ConnectionRequest, error)
	AcceptConnection(ctx context.Context, requestID string) error
	RejectConnection(ctx context.Context, requestID string) error
	CancelConnection(ctx context.Context, requestID string) error
}

// Tracker manages the relationship state machine for one
// (currentUser, peer) pair.
type Tracker struct {
	client API
	selfID string
	peerID string

	mu        sync.Mutex
	state     State
	requestID string
	inFlight  bool
}

// NewTracker creates a tracker for the given peer. The state starts
// at none; call Load to recompute it from server data.
func NewTracker(client API, selfID, peerID string) *Tracker {
	return &Tracker{
		client: client,
		selfID: selfID,
		peerID: peerID,
		state:  StateNone,
	}
}

// State returns the current derived state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Load recomputes the relationship state from the server: first a
// connections-array check on both profiles, then a pending-request
// lookup matched by sender/receiver pair.
func (t *Tracker) Load(ctx context.Context) error {
	if err := t.begin(); err != nil {
		return err
	}
	defer t.settle()

	peer, err := t.client.Profile(ctx, t.peerID)
	if err != nil {
		return fmt.Errorf("loading peer profile: %w", err)
	}
	self, err := t.client.Profile(ctx, t.selfID)
	if err != nil {
		return fmt.Errorf("loading own profile: %w", err)
	}

	// Check both connections arrays; either side listing the other
	// counts as connected.
	if peer.IsConnectedTo(t.selfID) || self.IsConnectedTo(t.peerID) {
		t.set(StateConnected, "")
		return nil
	}

	req, err := t.findPending(ctx)
	if err != nil {
		return err
	}
	switch {
	case req == nil:
		t.set(StateNone, "")
	case req.Sender.ID == t.selfID:
		t.set(StatePending, req.ID)
	default:
		t.set(StateReceived, req.ID)
	}
	return nil
}

// Send issues a connection request to the peer. Valid only from none.
// On server rejection the state is left unchanged; a subsequent Load
// is expected to reconcile any divergence.
func (t *Tracker) Send(ctx context.Context) error {
	if err := t.require(StateNone); err != nil {
		return err
	}
	defer t.settle()

	req, err := t.client.SendConnection(ctx, t.peerID)
	if err != nil {
		return err
	}
	t.set(StatePending, req.ID)
	return nil
}

// Cancel withdraws the outstanding request we sent. A request that no
// longer exists server-side, or a cancel repeated after the state has
// already settled at none, is treated as already cancelled and
// absorbed silently.
func (t *Tracker) Cancel(ctx context.Context) error {
	t.mu.Lock()
	if t.state == StateNone && !t.inFlight {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := t.require(StatePending); err != nil {
		return err
	}
	defer t.settle()

	id, err := t.resolveRequestID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		// Already gone server-side; idempotent cancel.
		t.set(StateNone, "")
		return nil
	}
	if err := t.client.CancelConnection(ctx, id); err != nil && !api.IsNotFound(err) {
		return err
	}
	t.set(StateNone, "")
	return nil
}

// Accept accepts the request the peer sent. Valid only from received.
func (t *Tracker) Accept(ctx context.Context) error {
	if err := t.require(StateReceived); err != nil {
		return err
	}
	defer t.settle()

	id, err := t.resolveRequestID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		// The request vanished (e.g. the peer withdrew it).
		t.set(StateNone, "")
		return nil
	}
	if err := t.client.AcceptConnection(ctx, id); err != nil {
		return err
	}
	t.set(StateConnected, "")
	return nil
}

// Reject declines the request the peer sent. Valid only from received.
func (t *Tracker) Reject(ctx context.Context) error {
	if err := t.require(StateReceived); err != nil {
		return err
	}
	defer t.settle()

	id, err := t.resolveRequestID(ctx)
	if err != nil {
		return err
	}
	if id != "" {
		if err := t.client.RejectConnection(ctx, id); err != nil && !api.IsNotFound(err) {
			return err
		}
	}
	t.set(StateNone, "")
	return nil
}

// resolveRequestID returns the id of the outstanding request for this
// pair, preferring the one remembered from Load/Send and falling back
// to a fresh pending-requests lookup. Empty means no request exists.
func (t *Tracker) resolveRequestID(ctx context.Context) (string, error) {
	t.mu.Lock()
	id := t.requestID
	t.mu.Unlock()
	if id != "" {
		return id, nil
	}

	req, err := t.findPending(ctx)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", nil
	}
	return req.ID, nil
}

// findPending locates the pending request between the pair, if any.
func (t *Tracker) findPending(ctx context.Context) (*model.ConnectionRequest, error) {
	reqs, err := t.client.PendingConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	for i := range reqs {
		r := &reqs[i]
		if r.Status == model.RequestStatusPending && r.Involves(t.selfID, t.peerID) {
			return r, nil
		}
	}
	return nil, nil
}

// require acquires the in-flight guard and checks that the current
// state permits the action.
func (t *Tracker) require(from State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return ErrBusy
	}
	if t.state != from {
		return fmt.Errorf("%w: need %s, currently %s", ErrInvalidTransition, from, t.state)
	}
	t.inFlight = true
	return nil
}

// begin acquires the in-flight guard without a state precondition.
func (t *Tracker) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return ErrBusy
	}
	t.inFlight = true
	return nil
}

func (t *Tracker) settle() {
	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
}

func (t *Tracker) set(state State, requestID string) {
	t.mu.Lock()
	t.state = state
	t.requestID = requestID
	t.mu.Unlock()
}
