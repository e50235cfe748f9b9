package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/connection"
	"github.com/hashan1998-it/unichat-tui/internal/feed"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/notify"
	"github.com/hashan1998-it/unichat-tui/internal/push"
	"github.com/hashan1998-it/unichat-tui/internal/session"
	"github.com/hashan1998-it/unichat-tui/internal/store"
	"github.com/hashan1998-it/unichat-tui/internal/ui"
	"github.com/hashan1998-it/unichat-tui/internal/ui/authview"
	"github.com/hashan1998-it/unichat-tui/internal/ui/composeform"
	"github.com/hashan1998-it/unichat-tui/internal/ui/explore"
	"github.com/hashan1998-it/unichat-tui/internal/ui/feedview"
	"github.com/hashan1998-it/unichat-tui/internal/ui/helpview"
	"github.com/hashan1998-it/unichat-tui/internal/ui/notifview"
	"github.com/hashan1998-it/unichat-tui/internal/ui/postdetail"
	"github.com/hashan1998-it/unichat-tui/internal/ui/profileview"
	"github.com/hashan1998-it/unichat-tui/internal/ui/requests"
)

// sessionRestoredMsg reports the startup attempt to resume a stored
// session.
type sessionRestoredMsg struct {
	ok bool
}

// pushConnectedMsg signals that the push channel connect attempt ran.
type pushConnectedMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAuth ViewState = iota
	ViewFeed
	ViewPostDetail
	ViewCompose
	ViewExplore
	ViewRequests
	ViewNotifications
	ViewProfile
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing,
// layout, the session lifecycle, and the push channel.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	client        *api.Client
	session       *session.Manager
	push          *push.Client
	notifications *notify.Store
	posts         *feed.List
	cache         store.Store
	connections   *connection.Registry

	authView    authview.Model
	feedView    feedview.Model
	detailView  postdetail.Model
	composeView composeform.Model
	exploreView explore.Model
	requestView requests.Model
	notifView   notifview.Model
	profileView profileview.Model
	helpView    helpview.Model

	events        chan tea.Msg
	pushArmed     bool
	unreadChecked bool
	ready         bool
	notice        string
}

// New creates the root application model. The caller wires the shared
// API client, session manager, push client, and local cache.
func New(
	client *api.Client,
	sess *session.Manager,
	pushClient *push.Client,
	cache store.Store,
) Model {
	k := keys.DefaultKeyMap()
	posts := feed.NewList()
	notifications := notify.NewStore(client)

	m := Model{
		currentView:   ViewAuth,
		keys:          k,
		client:        client,
		session:       sess,
		push:          pushClient,
		notifications: notifications,
		posts:         posts,
		cache:         cache,
		events:        make(chan tea.Msg, 64),
	}
	m.authView = authview.New(sess, 80, 24)
	m.buildMainViews(80, 24)
	return m
}

// buildMainViews (re)creates the signed-in views. Called once at
// construction and again when a session is established, so each view
// carries the signed-in user's id.
func (m *Model) buildMainViews(width, height int) {
	selfID := m.session.UserID()
	// One tracker per peer for the whole session, so the in-flight
	// guard spans views and repeated keypresses.
	m.connections = connection.NewRegistry(m.client, selfID)
	m.feedView = feedview.New(m.client, m.posts, m.keys, selfID, width, height)
	m.detailView = postdetail.New(m.client, m.posts, m.keys, "", selfID, width, height)
	m.composeView = composeform.New(m.client, width, height)
	m.exploreView = explore.New(m.client, m.connections, m.keys, selfID, width, height)
	m.requestView = requests.New(m.client, m.connections, m.keys, selfID, width, height)
	m.notifView = notifview.New(m.notifications, m.keys, width, height)
	m.profileView = profileview.New(m.client, m.connections, m.keys, selfID, selfID, width, height)
	m.helpView = helpview.New(m.keys, width, height)
}

// Init attempts to resume a stored session before showing the login
// form.
func (m Model) Init() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ok, _ := sess.Restore(context.Background())
		return sessionRestoredMsg{ok: ok}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.authView.SetSize(contentWidth, contentHeight)
		m.feedView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.exploreView.SetSize(contentWidth, contentHeight)
		m.requestView.SetSize(contentWidth, contentHeight)
		m.notifView.SetSize(contentWidth, contentHeight)
		m.profileView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionRestoredMsg:
		if !msg.ok {
			m.currentView = ViewAuth
			return m, m.authView.Init()
		}
		return m.enterMain()

	case authview.AuthenticatedMsg:
		return m.enterMain()

	case pushConnectedMsg:
		return m, nil

	case pushEventMsg:
		return m.handlePushEvent(msg)

	case cacheWarmedMsg:
		// Cached state is advisory; never clobber fresher server data.
		if len(msg.posts) > 0 && m.posts.Len() == 0 {
			m.posts.Replace(msg.posts)
		}
		if len(msg.notifications) > 0 && len(m.notifications.Notifications()) == 0 {
			m.notifications.Replace(msg.notifications)
		}
		return m, tea.Batch(m.feedView.Refresh(), m.notifView.Refresh())

	case feedview.FeedLoadedMsg:
		if msg.Err != nil {
			m.notice = api.UserMessage(msg.Err)
		} else {
			m.notice = ""
		}
		var cmd tea.Cmd
		m.feedView, cmd = m.feedView.Update(msg)
		return m, tea.Batch(cmd, m.persistFeed())

	case feedview.SelectedPostMsg:
		m.previousView = m.currentView
		m.currentView = ViewPostDetail
		m.detailView = postdetail.New(
			m.client, m.posts, m.keys,
			msg.PostID, m.session.UserID(),
			m.layout.ContentWidth(), m.layout.ContentHeight(),
		)
		return m, m.detailView.Init()

	case feedview.ComposeRequestedMsg:
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, m.composeView.Start()

	case composeform.PostCreatedMsg:
		m.currentView = ViewFeed
		if msg.Post != nil {
			m.posts.ApplyNewPost(*msg.Post)
		}
		return m, tea.Batch(m.feedView.Refresh(), m.persistFeed())

	case composeform.PostFailedMsg:
		m.notice = api.UserMessage(msg.Err)
		m.currentView = ViewFeed
		return m, nil

	case composeform.CancelMsg:
		m.currentView = ViewFeed
		return m, nil

	case postdetail.BackMsg:
		m.currentView = ViewFeed
		return m, m.feedView.Refresh()

	case postdetail.PostMutatedMsg:
		if msg.Err != nil {
			m.notice = api.UserMessage(msg.Err)
		}
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, tea.Batch(cmd, m.feedView.Refresh(), m.persistFeed())

	case explore.ViewProfileMsg:
		return m.openProfile(msg.UserID)

	case explore.ConnActionMsg:
		// A duplicate press while a transition is in flight is dropped
		// quietly; the first press's outcome is on its way.
		if msg.Err != nil && !errors.Is(msg.Err, connection.ErrBusy) {
			m.notice = api.UserMessage(msg.Err)
		}
		var cmd tea.Cmd
		m.exploreView, cmd = m.exploreView.Update(msg)
		return m, cmd

	case requests.RequestsLoadedMsg:
		// Routed here so the startup load lands even while another
		// view is active.
		var cmd tea.Cmd
		m.requestView, cmd = m.requestView.Update(msg)
		return m, cmd

	case requests.RequestSettledMsg:
		if msg.Err != nil && !errors.Is(msg.Err, connection.ErrBusy) {
			m.notice = api.UserMessage(msg.Err)
		}
		var cmd tea.Cmd
		m.requestView, cmd = m.requestView.Update(msg)
		return m, cmd

	case profileview.BackMsg:
		m.currentView = m.previousView
		return m, nil

	case profileview.BioSavedMsg:
		if msg.Err != nil {
			m.notice = api.UserMessage(msg.Err)
		} else if u := m.session.User(); u != nil {
			updated := *u
			updated.Bio = msg.Bio
			m.session.SetUser(&updated)
		}
		var cmd tea.Cmd
		m.profileView, cmd = m.profileView.Update(msg)
		return m, cmd

	case notifview.OpenLinkMsg:
		return m.openLink(msg.Link)

	case notifview.LoadedMsg:
		if msg.Err != nil {
			m.notice = api.UserMessage(msg.Err)
		}
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		cmds := []tea.Cmd{cmd, m.persistNotifications()}
		// Cross-check the badge against the server counter once per
		// session; divergence is logged, the list stays authoritative.
		if msg.Err == nil && !m.unreadChecked {
			m.unreadChecked = true
			notifications := m.notifications
			cmds = append(cmds, func() tea.Msg {
				notifications.VerifyUnread(context.Background())
				return nil
			})
		}
		return m, tea.Batch(cmds...)

	case notifview.MarkedMsg:
		if msg.Err != nil {
			m.notice = api.UserMessage(msg.Err)
		}
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKeys(msg); handled {
			return model, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// enterMain transitions from the auth screen into the signed-in UI:
// views are rebuilt for the session user, the cache is warmed, the
// push channel opened, and the first loads kicked off.
func (m Model) enterMain() (tea.Model, tea.Cmd) {
	width, height := 80, 24
	if m.ready {
		width = m.layout.ContentWidth()
		height = m.layout.ContentHeight()
	}
	m.buildMainViews(width, height)
	m.currentView = ViewFeed
	m.notice = ""
	m.unreadChecked = false

	m.subscribePush()

	cmds := []tea.Cmd{
		m.warmCache(),
		m.feedView.Init(),
		m.notifView.Init(),
		m.requestView.Init(),
		m.connectPush(),
	}
	// One receiver on the event channel is enough; it re-arms itself
	// and survives logout/login cycles.
	if !m.pushArmed {
		m.pushArmed = true
		cmds = append(cmds, m.waitForPush())
	}
	return m, tea.Batch(cmds...)
}

// logout tears down the push channel and the session and returns to
// the auth screen.
func (m Model) logout() (tea.Model, tea.Cmd) {
	m.push.Disconnect()
	m.session.Logout()
	m.posts.Replace(nil)
	m.notifications.Replace(nil)
	m.currentView = ViewAuth
	m.notice = ""
	width, height := 80, 24
	if m.ready {
		width = m.layout.ContentWidth()
		height = m.layout.ContentHeight()
	}
	m.authView = authview.New(m.session, width, height)
	return m, m.authView.Init()
}

// openProfile switches to the profile view for the given user.
func (m Model) openProfile(userID string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewProfile
	m.profileView = profileview.New(
		m.client, m.connections, m.keys,
		userID, m.session.UserID(),
		m.layout.ContentWidth(), m.layout.ContentHeight(),
	)
	return m, m.profileView.Init()
}

// openLink navigates to a notification's target: a post or a profile.
func (m Model) openLink(link string) (tea.Model, tea.Cmd) {
	if postID, ok := parseLink(link, "/post/"); ok {
		if _, present := m.posts.Get(postID); present {
			m.previousView = m.currentView
			m.currentView = ViewPostDetail
			m.detailView = postdetail.New(
				m.client, m.posts, m.keys,
				postID, m.session.UserID(),
				m.layout.ContentWidth(), m.layout.ContentHeight(),
			)
			return m, m.detailView.Init()
		}
		return m, m.notifView.Refresh()
	}
	if userID, ok := parseLink(link, "/profile/"); ok {
		return m.openProfile(userID)
	}
	return m, m.notifView.Refresh()
}

// parseLink extracts the id from a notification link with the given
// prefix.
func parseLink(link, prefix string) (string, bool) {
	if len(link) > len(prefix) && link[:len(prefix)] == prefix {
		return link[len(prefix):], true
	}
	return "", false
}

// handleGlobalKeys processes keys that work across the signed-in
// views. Returns handled=false when the key should fall through to
// the active view, e.g. while a text input has focus.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.push.Disconnect()
		return m, tea.Quit, true
	}

	if m.currentView == ViewAuth || m.currentView == ViewCompose {
		return m, nil, false
	}
	if m.inputActive() {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewFeed {
			m.push.Disconnect()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case "1":
		m.currentView = ViewFeed
		return m, m.feedView.Refresh(), true

	case "2":
		m.currentView = ViewExplore
		return m, nil, true

	case "3":
		m.currentView = ViewRequests
		return m, m.requestView.LoadRequests(), true

	case "4":
		m.currentView = ViewNotifications
		return m, m.notifView.Refresh(), true

	case "5":
		model, cmd := m.openProfile(m.session.UserID())
		return model, cmd, true

	case "ctrl+o":
		model, cmd := m.logout()
		return model, cmd, true
	}

	return m, nil, false
}

// inputActive reports whether the active view currently owns a text
// input, in which case global single-key shortcuts must not fire.
func (m Model) inputActive() bool {
	switch m.currentView {
	case ViewFeed:
		return m.feedView.Searching()
	case ViewExplore:
		return m.exploreView.Searching()
	case ViewPostDetail:
		return m.detailView.Commenting()
	case ViewProfile:
		return m.profileView.Editing()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authView, cmd = m.authView.Update(msg)
	case ViewFeed:
		m.feedView, cmd = m.feedView.Update(msg)
	case ViewPostDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewExplore:
		m.exploreView, cmd = m.exploreView.Update(msg)
	case ViewRequests:
		m.requestView, cmd = m.requestView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewAuth {
		return m.authView.View()
	}

	header := m.layout.RenderHeader(
		"UniChat",
		m.push.IsConnected(),
		m.notifications.UnreadCount(),
	)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.feedView.View()
	case ViewPostDetail:
		return m.detailView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewExplore:
		return m.exploreView.View()
	case ViewRequests:
		return m.requestView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar. A
// pending notice takes precedence.
func (m Model) keyHints() string {
	if m.notice != "" {
		return m.notice
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewPostDetail:
		return "esc back | l like | c comment | j/k scroll"
	case ViewCompose:
		return "enter next field | esc cancel"
	case ViewExplore:
		return "/ search | enter profile | s send/cancel | a accept | x reject"
	case ViewRequests:
		return "a accept | x reject | s cancel | r refresh"
	case ViewNotifications:
		return "enter open | m mark all read | r refresh"
	case ViewProfile:
		return "esc back | e edit bio | s connect"
	default:
		return "q quit | ? help | n new post | l like | / search | enter open | 1-5 views"
	}
}
