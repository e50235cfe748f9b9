package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a server-rejected request: the backend answered with a
// non-2xx status and, usually, a message body. The message is surfaced
// to the user verbatim when present.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// AuthError indicates that authentication has failed or expired.
// It is returned when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound reports whether err is a server rejection with 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// UserMessage extracts a user-presentable message from a REST error:
// the server's own message when one exists, a generic connectivity
// notice otherwise.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if IsAuthError(err) {
		return "Session expired. Please sign in again."
	}
	return "Unable to reach the server. Please try again."
}
