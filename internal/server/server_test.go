package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paradetect/paradetect/internal/auth"
	"github.com/paradetect/paradetect/internal/chatbot"
	"github.com/paradetect/paradetect/internal/config"
	"github.com/paradetect/paradetect/internal/model"
	"github.com/paradetect/paradetect/internal/predictor"
	"github.com/paradetect/paradetect/internal/repository"
	"github.com/paradetect/paradetect/internal/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t   *testing.T
	srv *Server
	ts  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conf := &config.Config{}
	conf.Token.Secret = "test-secret-test-secret"
	conf.Token.LifetimeMinutes = 60
	conf.Upload.Dir = t.TempDir()
	conf.Upload.MaxFileBytes = 1024 * 1024

	repo, err := repository.Open(filepath.Join(t.TempDir(), "data.json"), zap.NewNop())
	require.NoError(t, err)

	authSvc, err := auth.NewService(auth.Params{
		Logger: zap.NewNop(),
		Repo:   repo,
		Tokens: token.NewService(conf),
	})
	require.NoError(t, err)

	srv, err := New(Params{
		Log:       zap.NewNop(),
		Config:    conf,
		Repo:      repo,
		Auth:      authSvc,
		Predictor: predictor.NewStub(),
		Bot:       chatbot.New(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)

	return &testServer{t: t, srv: srv, ts: ts}
}

// register creates a user through the API and returns its access token
// and wire form.
func (ts *testServer) register(email, password, role string) (string, model.UserInfo) {
	ts.t.Helper()

	resp := ts.postJSON("", "/api/auth/register", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": "Test " + role,
		"role":      role,
	})
	defer resp.Body.Close()
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)

	var out struct {
		AccessToken string         `json:"access_token"`
		TokenType   string         `json:"token_type"`
		User        model.UserInfo `json:"user"`
	}
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(ts.t, "bearer", out.TokenType)

	return out.AccessToken, out.User
}

func (ts *testServer) do(token, method, path string, body io.Reader, contentType string) *http.Response {
	ts.t.Helper()

	req, err := http.NewRequest(method, ts.ts.URL+path, body)
	require.NoError(ts.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.ts.Client().Do(req)
	require.NoError(ts.t, err)
	return resp
}

func (ts *testServer) get(token, path string) *http.Response {
	return ts.do(token, http.MethodGet, path, nil, "")
}

func (ts *testServer) postJSON(token, path string, body any) *http.Response {
	ts.t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(ts.t, err)
	return ts.do(token, http.MethodPost, path, bytes.NewReader(buf), "application/json")
}

func (ts *testServer) putJSON(token, path string, body any) *http.Response {
	ts.t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(ts.t, err)
	return ts.do(token, http.MethodPut, path, bytes.NewReader(buf), "application/json")
}

func (ts *testServer) sendForm(token, method, path string, form url.Values) *http.Response {
	return ts.do(token, method, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// uploadImage posts a multipart image to path, with optional extra
// form fields.
func (ts *testServer) uploadImage(token, path, filename string, content []byte, fields map[string]string) *http.Response {
	ts.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(ts.t, err)
	_, err = part.Write(content)
	require.NoError(ts.t, err)
	for k, v := range fields {
		require.NoError(ts.t, mw.WriteField(k, v))
	}
	require.NoError(ts.t, mw.Close())

	return ts.do(token, http.MethodPost, path, &buf, mw.FormDataContentType())
}

// decode unmarshals the response body into out and closes it.
func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// detail reads the error body and returns its detail message.
func detail(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, resp, &body)
	return body.Detail
}
