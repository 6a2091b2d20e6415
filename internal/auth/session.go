package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/models"
)

// Session holds the staff login state: access token plus the user, staff and
// poly records returned at login. It is persisted to a JSON file so a login
// survives between CLI invocations, and it implements api.TokenSource so the
// HTTP client can refresh the token after a 401.
type Session struct {
	mu      sync.Mutex
	path    string
	client  *api.Client
	refresh *api.Client
	state   state
}

type state struct {
	Token    string        `json:"token,omitempty"`
	Username string        `json:"username,omitempty"`
	User     *models.User  `json:"user,omitempty"`
	Staff    *models.Staff `json:"staff,omitempty"`
	Poly     *models.Poly  `json:"poly,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user,omitempty"`
}

var errNoRefresh = errors.New("refresh endpoint cannot refresh itself")

// tokenOnly backs the refresh call: it presents the current token but never
// refreshes, so a 401 during refresh terminates instead of recursing.
type tokenOnly struct{ s *Session }

func (t tokenOnly) Token() string                     { return t.s.Token() }
func (t tokenOnly) Refresh(ctx context.Context) error { return errNoRefresh }

// NewSession loads any persisted session from path. An unreadable or corrupt
// file is treated as logged out.
func NewSession(client, refreshClient *api.Client, path string) *Session {
	s := &Session{path: path, client: client, refresh: refreshClient}
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &s.state)
	}
	refreshClient.SetTokens(tokenOnly{s})
	return s
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	var resp tokenResponse
	err := s.refresh.Post(ctx, "/v1/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return errors.New("auth: login response missing access_token")
	}

	s.mu.Lock()
	s.state = state{
		Token:    resp.AccessToken,
		Username: username,
		User:     resp.User,
	}
	if resp.User != nil && resp.User.Staff != nil {
		s.state.Staff = resp.User.Staff
		s.state.Poly = resp.User.Staff.Poly
	}
	s.mu.Unlock()
	return s.save()
}

// Logout tells the backend to invalidate the token, then clears local state
// regardless of whether that call succeeded.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	hasToken := s.state.Token != ""
	s.mu.Unlock()

	if hasToken {
		_ = s.client.Post(ctx, "/v1/auth/logout", nil, nil)
	}

	s.mu.Lock()
	s.state = state{}
	s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Refresh implements api.TokenSource. A failed refresh clears the token so
// later calls fail fast instead of looping on a dead credential.
func (s *Session) Refresh(ctx context.Context) error {
	var resp tokenResponse
	if err := s.refresh.Post(ctx, "/v1/auth/refresh", nil, &resp); err != nil {
		s.mu.Lock()
		s.state.Token = ""
		s.mu.Unlock()
		_ = s.save()
		return err
	}
	if resp.AccessToken == "" {
		return errors.New("auth: refresh response missing access_token")
	}

	s.mu.Lock()
	s.state.Token = resp.AccessToken
	s.mu.Unlock()
	return s.save()
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User
}

func (s *Session) Staff() *models.Staff {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Staff
}

func (s *Session) Poly() *models.Poly {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Poly
}

func (s *Session) save() error {
	s.mu.Lock()
	raw, err := json.Marshal(s.state)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("auth: session dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("auth: write session: %w", err)
	}
	return nil
}
