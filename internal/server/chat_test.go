package server

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatResponse struct {
	Message   string `json:"message"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

func Test_ChatPublic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)

	resp := ts.sendForm("", http.MethodPost, "/api/chatbot/public", url.Values{
		"message": {"what is malaria"},
	})
	require.Equal(http.StatusOK, resp.StatusCode)

	var out chatResponse
	decode(t, resp, &out)
	assert.Equal("what is malaria", out.Message)
	assert.Contains(out.Response, "Plasmodium")

	resp = ts.sendForm("", http.MethodPost, "/api/chatbot/public", url.Values{})
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Equal("message is required", detail(t, resp))
}

func Test_ChatUsesLatestScan(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)
	tok, _ := ts.register("doc@example.com", "pw123456", "doctor")

	resp := ts.uploadImage(tok, "/api/predict", "parasitized_cell.png", []byte("smear"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.sendForm(tok, http.MethodPost, "/api/chatbot", url.Values{
		"message": {"what does my result mean"},
	})
	require.Equal(http.StatusOK, resp.StatusCode)

	var out chatResponse
	decode(t, resp, &out)
	assert.Contains(out.Response, "Parasitized")
}
