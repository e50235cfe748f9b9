package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/credential"
	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// profileServer serves the profile endpoint, accepting only the given
// bearer token.
func profileServer(t *testing.T, token string, user model.User) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile/"+user.ID, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
			return
		}
		json.NewEncoder(w).Encode(user)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRestoreWithoutStoredCredentials(t *testing.T) {
	t.Setenv(credential.FileDirEnv, t.TempDir())

	m := NewManager(api.NewClient("http://127.0.0.1:1/api"))
	ok, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if ok {
		t.Fatal("Restore() = true with nothing persisted")
	}
	if m.Authenticated() {
		t.Fatal("manager should be signed out")
	}
}

func TestRestoreFromFileBackend(t *testing.T) {
	t.Setenv(credential.FileDirEnv, t.TempDir())

	user := model.User{ID: "u1", Username: "ann", Role: model.RoleStudent}
	srv := profileServer(t, "tok-1", user)

	if err := credential.SaveSession("tok-1", "u1"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	m := NewManager(api.NewClient(srv.URL))
	ok, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !ok {
		t.Fatal("Restore() = false with valid stored credentials")
	}
	if m.UserID() != "u1" {
		t.Fatalf("UserID() = %q, want u1", m.UserID())
	}
	if u := m.User(); u == nil || u.Username != "ann" {
		t.Fatalf("User() = %+v, want ann's profile", u)
	}
	token, _ := m.Credentials()
	if token != "tok-1" {
		t.Fatalf("Credentials() token = %q", token)
	}
}

func TestRestoreDiscardsStaleToken(t *testing.T) {
	t.Setenv(credential.FileDirEnv, t.TempDir())

	user := model.User{ID: "u1", Username: "ann"}
	srv := profileServer(t, "current-token", user)

	// Persist a token the server no longer accepts.
	if err := credential.SaveSession("stale-token", "u1"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	m := NewManager(api.NewClient(srv.URL))
	ok, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if ok {
		t.Fatal("Restore() = true with a stale token")
	}

	// The stale credentials were cleared: the next restore does not
	// even reach the server.
	m2 := NewManager(api.NewClient("http://127.0.0.1:1/api"))
	ok, err = m2.Restore(context.Background())
	if err != nil || ok {
		t.Fatalf("second Restore() = %v, %v; want false, nil", ok, err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	t.Setenv(credential.FileDirEnv, t.TempDir())

	user := model.User{ID: "u1", Username: "ann"}
	srv := profileServer(t, "tok-1", user)

	if err := credential.SaveSession("tok-1", "u1"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	client := api.NewClient(srv.URL)
	m := NewManager(client)
	if ok, _ := m.Restore(context.Background()); !ok {
		t.Fatal("Restore() = false")
	}

	m.Logout()

	if m.Authenticated() {
		t.Fatal("still authenticated after Logout")
	}
	if client.Token() != "" {
		t.Fatal("client token not cleared on Logout")
	}
	if _, _, err := credential.LoadSession(); err == nil {
		t.Fatal("persisted credentials survived Logout")
	}
}
