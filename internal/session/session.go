// Package session is the client-side source of truth for "who is
// logged in". The Manager owns the token store and the HTTP binding,
// and every mutation of either goes through it.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/paradetect/paradetect/internal/model"
	"go.uber.org/zap"
)

// DefaultBaseURL is used when no backend address is configured.
const DefaultBaseURL = "http://localhost:8000"

// APIError is a backend-reported failure, carrying the message
// exactly as the backend sent it.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Manager mediates between consumers and the auth backend.
//
// Lifecycle: construct once, call Resolve once, then Login/Logout/
// Register as the user drives it. Session-mutating operations are
// serialized: overlapping calls run one after the other rather than
// racing on the store.
type Manager struct {
	baseURL string
	store   TokenStore
	binding *Binding
	log     *zap.Logger

	// opMu serializes session-mutating operations; mu guards the
	// fields below and is never held across network calls.
	opMu sync.Mutex
	mu   sync.RWMutex

	user     *model.UserInfo
	token    string
	resolved bool
}

func NewManager(baseURL string, store TokenStore, binding *Binding, log *zap.Logger) *Manager {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	m := &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		binding: binding,
		log:     log,
	}

	// Single enforcement point for the "any 401 means the session is
	// dead" policy, for every consumer of the bound client.
	binding.OnUnauthorized(m.expire)

	return m
}

// Resolve restores the persisted session, once. With no stored token
// the session resolves unauthenticated; with one, the backend is
// asked who it belongs to, and any failure at all collapses to
// logged-out with the token removed. Fail closed, never a stale
// authenticated view.
func (m *Manager) Resolve(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	resolved := m.resolved
	m.mu.RUnlock()
	if resolved {
		return nil
	}

	defer func() {
		m.mu.Lock()
		m.resolved = true
		m.mu.Unlock()
	}()

	token, err := m.store.Load()
	if err != nil {
		m.log.Warn("failed loading stored token", zap.Error(err))
		return nil
	}
	if token == "" {
		return nil
	}

	m.binding.SetToken(token)

	var user model.UserInfo
	if err := m.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		m.log.Warn("stored session rejected, logging out", zap.Error(err))
		m.teardown()
		return nil
	}

	m.mu.Lock()
	m.token = token
	m.user = &user
	m.mu.Unlock()

	m.log.Info("session restored", zap.String("email", user.Email))
	return nil
}

// Login exchanges credentials for a session. The backend expects the
// OAuth2 password-grant form encoding; that is wire contract, not a
// choice. On failure the backend's error is returned unchanged and
// no state moves.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.UserInfo, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload authPayload
	if err := m.send(req, &payload); err != nil {
		return nil, err
	}

	m.commit(payload)
	m.log.Info("logged in", zap.String("email", payload.User.Email))
	return &payload.User, nil
}

// Register creates an account and starts its session, with the same
// commit semantics as Login.
func (m *Manager) Register(ctx context.Context, email, password, fullName, role, phone string) (*model.UserInfo, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	body := map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
		"role":      role,
		"phone":     phone,
	}

	var payload authPayload
	if err := m.doJSON(ctx, http.MethodPost, "/api/auth/register", body, &payload); err != nil {
		return nil, err
	}

	m.commit(payload)
	m.log.Info("registered", zap.String("email", payload.User.Email), zap.String("role", payload.User.Role))
	return &payload.User, nil
}

// Logout tears the session down locally. No network call, always
// succeeds, and calling it twice is the same as calling it once.
func (m *Manager) Logout() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.teardown()
}

// OTPResponse is the phone verification reply. In demo deployments
// the backend echoes the code instead of texting it.
type OTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OTP       string `json:"otp,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// SendOTP is a pass-through to the backend; it holds no session
// state.
func (m *Manager) SendOTP(ctx context.Context, phone string) (*OTPResponse, error) {
	var resp OTPResponse
	err := m.doJSON(ctx, http.MethodPost, "/api/auth/send-otp", map[string]string{"phone": phone}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP is a pass-through to the backend; it holds no session
// state.
func (m *Manager) VerifyOTP(ctx context.Context, phone, otp string) (*OTPResponse, error) {
	var resp OTPResponse
	err := m.doJSON(ctx, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": phone, "otp": otp}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *Manager) CurrentUser() *model.UserInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return nil
	}
	user := *m.user
	return &user
}

// IsAuthenticated reports whether a validated user is present. It is
// derived from the user record on every call, never cached.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// IsAdmin reports whether the signed-in user has the admin role.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.Role == model.RoleAdmin
}

// Role returns the signed-in user's role, or "".
func (m *Manager) Role() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return ""
	}
	return m.user.Role
}

// Loading reports whether the initial resolution is still pending.
// It flips true to false exactly once per process.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.resolved
}

// Token returns the current bearer token, for tests and diagnostics.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Binding exposes the bound HTTP client for domain API consumers.
func (m *Manager) Binding() *Binding {
	return m.binding
}

// BaseURL returns the backend address the session talks to.
func (m *Manager) BaseURL() string {
	return m.baseURL
}

type authPayload struct {
	AccessToken string         `json:"access_token"`
	User        model.UserInfo `json:"user"`
}

// commit installs a fresh session: store first, then the binding,
// then memory.
func (m *Manager) commit(payload authPayload) {
	if err := m.store.Save(payload.AccessToken); err != nil {
		m.log.Warn("failed persisting token", zap.Error(err))
	}
	m.binding.SetToken(payload.AccessToken)

	m.mu.Lock()
	m.token = payload.AccessToken
	user := payload.User
	m.user = &user
	m.mu.Unlock()
}

// teardown erases every trace of the session. Idempotent.
func (m *Manager) teardown() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn("failed clearing stored token", zap.Error(err))
	}
	m.binding.ClearToken()

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
}

// expire is the 401 hook. It must not take opMu: it fires from inside
// requests that an operation may have in flight.
func (m *Manager) expire() {
	m.log.Info("authenticated request rejected, clearing session")
	m.teardown()
}

// doJSON sends a JSON request through the bound client and decodes a
// JSON reply. Backend-reported failures come back as *APIError with
// the backend's message untouched; transport failures propagate
// unchanged.
func (m *Manager) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return m.send(req, out)
}

func (m *Manager) send(req *http.Request, out any) error {
	resp, err := m.binding.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	} else {
		apiErr.Detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	return apiErr
}
