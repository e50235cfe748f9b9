package app

import (
	"context"
	"encoding/json"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/push"
)

// pushEventMsg signals that a live event was applied to the shared
// state and the UI should repaint.
type pushEventMsg struct {
	class push.Class
}

// commentPayload is the wire shape of a newComment event.
type commentPayload struct {
	PostID  string        `json:"postId"`
	Comment model.Comment `json:"comment"`
}

// subscribePush registers the live-event handlers. Handlers run on the
// channel's read loop: they apply the event to the shared stores
// (which are safe for concurrent use) and nudge the UI through the
// event channel. Subscriptions live until Disconnect.
func (m *Model) subscribePush() {
	notifications := m.notifications
	posts := m.posts
	events := m.events

	m.push.Subscribe(push.ClassNewNotification, func(data json.RawMessage) {
		var n model.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			log.Printf("push: bad notification payload: %v", err)
			return
		}
		notifications.Receive(n)
		signal(events, pushEventMsg{class: push.ClassNewNotification})
	})

	m.push.Subscribe(push.ClassNewPost, func(data json.RawMessage) {
		var p model.Post
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("push: bad post payload: %v", err)
			return
		}
		posts.ApplyNewPost(p)
		signal(events, pushEventMsg{class: push.ClassNewPost})
	})

	m.push.Subscribe(push.ClassPostUpdated, func(data json.RawMessage) {
		var p model.Post
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("push: bad post payload: %v", err)
			return
		}
		posts.ApplyPostUpdate(p)
		signal(events, pushEventMsg{class: push.ClassPostUpdated})
	})

	m.push.Subscribe(push.ClassNewComment, func(data json.RawMessage) {
		var payload commentPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Printf("push: bad comment payload: %v", err)
			return
		}
		posts.ApplyNewComment(payload.PostID, payload.Comment)
		signal(events, pushEventMsg{class: push.ClassNewComment})
	})
}

// signal delivers a repaint nudge without ever blocking the read
// loop. The stores already hold the data, so a dropped nudge only
// means the repaint rides on the next one.
func signal(events chan<- tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

// connectPush opens the push channel off the UI loop.
func (m Model) connectPush() tea.Cmd {
	p := m.push
	return func() tea.Msg {
		p.Connect(context.Background())
		return pushConnectedMsg{}
	}
}

// waitForPush hands the next live-event nudge to the UI loop. The
// handler of the resulting message re-arms it, mirroring a
// subscription.
func (m Model) waitForPush() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// handlePushEvent refreshes the views that render the store the event
// touched, persists the new state, and re-arms the wait command.
func (m Model) handlePushEvent(msg pushEventMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForPush()}

	switch msg.class {
	case push.ClassNewNotification:
		cmds = append(cmds, m.notifView.Refresh(), m.persistNotifications())
	case push.ClassNewPost, push.ClassPostUpdated, push.ClassNewComment:
		m.detailView.Refresh()
		cmds = append(cmds, m.feedView.Refresh(), m.persistFeed())
	}

	return m, tea.Batch(cmds...)
}
