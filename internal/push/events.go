package push

import "encoding/json"

// Class identifies a kind of pushed event, independent of the wire
// name the server uses for it.
type Class string

const (
	ClassNewNotification Class = "newNotification"
	ClassNewPost         Class = "newPost"
	ClassPostUpdated     Class = "postUpdated"
	ClassNewComment      Class = "newComment"
)

// Naming selects the wire event-name convention the backend emits.
// Deployments disagree on this, so it is configuration rather than a
// hardcoded pair of listeners.
type Naming string

const (
	NamingCamel Naming = "camel"
	NamingKebab Naming = "kebab"
)

// Classes lists every event class in a stable order.
var Classes = []Class{
	ClassNewNotification,
	ClassNewPost,
	ClassPostUpdated,
	ClassNewComment,
}

// kebabNames maps each class to its kebab-case wire name.
var kebabNames = map[Class]string{
	ClassNewNotification: "new-notification",
	ClassNewPost:         "new-post",
	ClassPostUpdated:     "post-updated",
	ClassNewComment:      "new-comment",
}

// classByWire resolves inbound wire names of either convention.
var classByWire = func() map[string]Class {
	m := make(map[string]Class, len(kebabNames)*2)
	for class, kebab := range kebabNames {
		m[string(class)] = class
		m[kebab] = class
	}
	return m
}()

// WireName returns the event name used on the wire for a class under
// the given convention.
func WireName(class Class, naming Naming) string {
	if naming == NamingKebab {
		return kebabNames[class]
	}
	return string(class)
}

// ClassOf resolves an inbound wire name to its event class. Inbound
// names are normalized under both conventions so a server that emits
// the other style still reaches the right subscribers.
func ClassOf(wireName string) (Class, bool) {
	class, ok := classByWire[wireName]
	return class, ok
}

// Envelope is the frame exchanged on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
