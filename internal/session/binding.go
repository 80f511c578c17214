package session

import (
	"net/http"
	"sync"
)

// Binding owns the shared HTTP client and the bearer token attached
// to its outgoing requests. The session Manager is the only writer;
// everything else holds the client read-only.
type Binding struct {
	client *http.Client

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// NewBinding wraps client so every request it sends carries the
// current bearer token. A nil client gets a fresh one.
func NewBinding(client *http.Client) *Binding {
	if client == nil {
		client = &http.Client{}
	}

	b := &Binding{}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	// Copy so callers sharing the original client elsewhere aren't
	// affected.
	wrapped := *client
	wrapped.Transport = &authTransport{binding: b, base: base}
	b.client = &wrapped

	return b
}

// Client returns the bound HTTP client. Safe to share across the
// whole consumer tree.
func (b *Binding) Client() *http.Client {
	return b.client
}

func (b *Binding) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

func (b *Binding) ClearToken() {
	b.SetToken("")
}

func (b *Binding) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// OnUnauthorized installs the single handler invoked whenever an
// authenticated request comes back 401. The session Manager uses it
// to enforce the one "401 means logged out" policy for every
// consumer.
func (b *Binding) OnUnauthorized(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onUnauthorized = fn
}

type authTransport struct {
	binding *Binding
	base    http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.binding.mu.RLock()
	token := t.binding.token
	hook := t.binding.onUnauthorized
	t.binding.mu.RUnlock()

	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Only authenticated requests trip the hook: a 401 from a login
	// attempt is a credential failure, not an expired session.
	if resp.StatusCode == http.StatusUnauthorized && token != "" && hook != nil {
		hook()
	}

	return resp, nil
}
