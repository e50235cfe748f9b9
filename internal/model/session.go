package model

// Session is the authenticated client session: the signed-in user id
// and the bearer token issued at login. It is created on successful
// login, destroyed on logout, and owned exclusively by the session
// manager; the push channel may only hold an open connection while a
// session exists.
type Session struct {
	UserID string
	Token  string
}

// Valid reports whether the session carries both a user id and a token.
func (s Session) Valid() bool {
	return s.UserID != "" && s.Token != ""
}
