package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// Credentials is the payload returned by a successful login.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// RegisterRequest carries the fields of a new account registration.
type RegisterRequest struct {
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	Role         model.Role `json:"role"`
	UniversityID string     `json:"universityId"`
}

// Login authenticates with a university id and password and returns
// the issued token and user id. The token is not installed on the
// client; the session manager owns that step.
func (c *Client) Login(
	ctx context.Context,
	universityID, password string,
) (*Credentials, error) {
	body := map[string]string{
		"universityId": universityID,
		"password":     password,
	}
	var creds Credentials
	if err := c.Post(ctx, "/auth/login", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Register creates a new account. The caller logs in separately.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.Post(ctx, "/auth/register", req, nil)
}

// Profile fetches a user profile by id.
func (c *Client) Profile(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	if err := c.Get(ctx, "/users/profile/"+url.PathEscape(userID), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile updates the signed-in user's bio.
func (c *Client) UpdateProfile(ctx context.Context, bio string) error {
	return c.Put(ctx, "/users/profile", map[string]string{"bio": bio}, nil)
}

// Feed fetches the current post feed, chronologically descending.
func (c *Client) Feed(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := c.Get(ctx, "/posts/feed", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a new post. When imagePath is non-empty the
// request is sent as a multipart form with the image attached;
// otherwise a plain JSON body is used.
func (c *Client) CreatePost(
	ctx context.Context,
	content, postType, imagePath string,
) (*model.Post, error) {
	if imagePath == "" {
		body := map[string]string{
			"content":  content,
			"postType": postType,
		}
		var p model.Post
		if err := c.Post(ctx, "/posts", body, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	return c.createPostMultipart(ctx, content, postType, imagePath)
}

// createPostMultipart uploads a post with an attached image file.
func (c *Client) createPostMultipart(
	ctx context.Context,
	content, postType, imagePath string,
) (*model.Post, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", imagePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("content", content); err != nil {
		return nil, fmt.Errorf("writing form field: %w", err)
	}
	if err := w.WriteField("postType", postType); err != nil {
		return nil, fmt.Errorf("writing form field: %w", err)
	}
	part, err := w.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying image data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/posts", &buf,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request POST /posts: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Message: serverMessage(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(respBody),
		}
	}

	var p model.Post
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling response from POST /posts: %w", err)
	}
	return &p, nil
}

// LikePost toggles the signed-in user's like on a post and returns the
// updated post.
func (c *Client) LikePost(ctx context.Context, postID string) (*model.Post, error) {
	var p model.Post
	path := "/posts/" + url.PathEscape(postID) + "/like"
	if err := c.Post(ctx, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CommentPost adds a comment to a post and returns the updated post.
func (c *Client) CommentPost(
	ctx context.Context,
	postID, content string,
) (*model.Post, error) {
	var p model.Post
	path := "/posts/" + url.PathEscape(postID) + "/comment"
	if err := c.Post(ctx, path, map[string]string{"content": content}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PendingConnections lists all outstanding connection requests that
// involve the signed-in user, sent and received.
func (c *Client) PendingConnections(ctx context.Context) ([]model.ConnectionRequest, error) {
	var reqs []model.ConnectionRequest
	if err := c.Get(ctx, "/connections/pending", &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// SendConnection sends a connection request to the given user.
func (c *Client) SendConnection(
	ctx context.Context,
	userID string,
) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	path := "/connections/send/" + url.PathEscape(userID)
	if err := c.Post(ctx, path, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// AcceptConnection accepts a received connection request.
func (c *Client) AcceptConnection(ctx context.Context, requestID string) error {
	return c.Post(ctx, "/connections/accept/"+url.PathEscape(requestID), nil, nil)
}

// RejectConnection declines a received connection request.
func (c *Client) RejectConnection(ctx context.Context, requestID string) error {
	return c.Post(ctx, "/connections/reject/"+url.PathEscape(requestID), nil, nil)
}

// CancelConnection withdraws a request the signed-in user sent.
func (c *Client) CancelConnection(ctx context.Context, requestID string) error {
	return c.Delete(ctx, "/connections/cancel/"+url.PathEscape(requestID))
}

// Notifications fetches the full notification list for the signed-in
// user, newest first.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var ns []model.Notification
	if err := c.Get(ctx, "/notifications", &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// UnreadCount fetches the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.Get(ctx, "/notifications/unread/count", &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.Put(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.Put(ctx, "/notifications/read/all", nil, nil)
}

// SearchUsers finds users matching the query. An empty query returns
// all users, which is how the explore view loads its directory.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	var users []model.User
	path := "/search/users?query=" + url.QueryEscape(query)
	if err := c.Get(ctx, path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchPosts finds posts matching the query.
func (c *Client) SearchPosts(ctx context.Context, query string) ([]model.Post, error) {
	var posts []model.Post
	path := "/search/posts?query=" + url.QueryEscape(query)
	if err := c.Get(ctx, path, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
