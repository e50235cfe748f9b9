package model

import "time"

// Connection request status as reported by the server.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// ConnectionRequest is a directed relationship request between two
// users. The server is the source of truth for its lifecycle; the
// client only derives per-peer display state from it by comparing
// sender/receiver against the signed-in user.
type ConnectionRequest struct {
	ID        string    `json:"_id"`
	Sender    User      `json:"sender"`
	Receiver  User      `json:"receiver"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Involves reports whether the request is between the two given users,
// in either direction.
func (r *ConnectionRequest) Involves(a, b string) bool {
	return (r.Sender.ID == a && r.Receiver.ID == b) ||
		(r.Sender.ID == b && r.Receiver.ID == a)
}
