package model

import "time"

// NotificationType identifies what kind of activity produced a
// notification.
type NotificationType string

const (
	NotificationConnectionRequest  NotificationType = "connection_request"
	NotificationConnectionAccepted NotificationType = "connection_accepted"
	NotificationPostLike           NotificationType = "post_like"
	NotificationPostComment        NotificationType = "post_comment"
)

// Notification represents an alert surfaced to the signed-in user.
// Notifications are created server-side and delivered either over the
// push channel or by a REST fetch; the client only ever mutates the
// Read field.
type Notification struct {
	// ID is the server-assigned identifier. A given id is shown at
	// most once regardless of how many times it is delivered.
	ID string `json:"_id"`

	// Type identifies the originating activity.
	Type NotificationType `json:"type"`

	// Content is the human-readable notification text.
	Content string `json:"content"`

	// Link is an optional navigation target (a post or profile).
	Link string `json:"link,omitempty"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"createdAt"`
}
