package connection

import "sync"

// Registry hands out one Tracker per peer for the signed-in user.
// Views must route every transition through the shared tracker so the
// in-flight guard holds across repeated keypresses and across views,
// not just within a single call site.
type Registry struct {
	client API
	selfID string

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewRegistry creates a registry scoped to the signed-in user. Build a
// fresh one per session.
func NewRegistry(client API, selfID string) *Registry {
	return &Registry{
		client:   client,
		selfID:   selfID,
		trackers: make(map[string]*Tracker),
	}
}

// Tracker returns the shared tracker for the given peer, creating it
// on first use.
func (r *Registry) Tracker(peerID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[peerID]
	if !ok {
		t = NewTracker(r.client, r.selfID, peerID)
		r.trackers[peerID] = t
	}
	return t
}
