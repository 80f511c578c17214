package server

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/paradetect/paradetect/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predictResponse struct {
	ID            int                `json:"id"`
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	Filename      string             `json:"filename"`
	CreatedAt     string             `json:"created_at"`
}

func Test_PredictPublic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)

	resp := ts.uploadImage("", "/predict", "uninfected_cell.png", []byte("smear"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)

	var out predictResponse
	decode(t, resp, &out)
	assert.Equal(model.ClassUninfected, out.Prediction)
	assert.Equal("uninfected_cell.png", out.Filename)
	assert.Contains(out.Probabilities, model.ClassParasitized)
	assert.Contains(out.Probabilities, model.ClassUninfected)

	resp = ts.uploadImage("", "/predict", "cell.gif", []byte("smear"), nil)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Equal("Invalid file type. Allowed: png, jpg, jpeg", detail(t, resp))
}

func Test_PredictRejectsOversizedUpload(t *testing.T) {
	assert := assert.New(t)

	ts := newTestServer(t)

	big := make([]byte, ts.srv.conf.Upload.MaxFileBytes+1)
	resp := ts.uploadImage("", "/predict", "cell.png", big, nil)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Equal("File too large. Maximum size: 1MB", detail(t, resp))
}

func Test_PredictAuthenticated(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)
	tok, _ := ts.register("doc@example.com", "pw123456", "doctor")

	resp := ts.uploadImage(tok, "/api/predict", "parasitized_cell.png", []byte("smear"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)

	var out predictResponse
	decode(t, resp, &out)
	assert.Equal(model.ClassParasitized, out.Prediction)
	assert.NotZero(out.ID)
	_, err := time.Parse(time.RFC3339, out.CreatedAt)
	assert.NoError(err)

	// The scan shows up in the user's history.
	resp = ts.get(tok, "/api/predictions")
	require.Equal(http.StatusOK, resp.StatusCode)
	var preds []model.Prediction
	decode(t, resp, &preds)
	require.Len(preds, 1)
	assert.Equal(out.ID, preds[0].ID)
	assert.Equal("pending", preds[0].Status)

	// Another user's history stays empty.
	otherTok, _ := ts.register("other@example.com", "pw123456", "patient")
	resp = ts.get(otherTok, "/api/predictions")
	require.Equal(http.StatusOK, resp.StatusCode)
	decode(t, resp, &preds)
	assert.Empty(preds)
}

func Test_UpdateNotes(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)
	tok, _ := ts.register("doc@example.com", "pw123456", "doctor")

	resp := ts.uploadImage(tok, "/api/predict", "cell.png", []byte("smear"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)
	var out predictResponse
	decode(t, resp, &out)

	resp = ts.sendForm(tok, http.MethodPut, "/api/predictions/1/notes", url.Values{
		"notes": {"needs a follow-up smear"},
	})
	require.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.get(tok, "/api/predictions")
	var preds []model.Prediction
	decode(t, resp, &preds)
	require.Len(preds, 1)
	assert.Equal("needs a follow-up smear", preds[0].DoctorNotes)

	// Other users can't touch it.
	otherTok, _ := ts.register("other@example.com", "pw123456", "patient")
	resp = ts.sendForm(otherTok, http.MethodPut, "/api/predictions/1/notes", url.Values{
		"notes": {"hijacked"},
	})
	assert.Equal(http.StatusNotFound, resp.StatusCode)
	assert.Equal("Prediction not found", detail(t, resp))
}

func Test_Stats(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)
	tok, _ := ts.register("doc@example.com", "pw123456", "doctor")

	resp := ts.uploadImage(tok, "/api/predict", "parasitized_a.png", []byte("one"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = ts.uploadImage(tok, "/api/predict", "uninfected_b.png", []byte("two"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.get(tok, "/api/stats")
	require.Equal(http.StatusOK, resp.StatusCode)

	var got struct {
		TotalScans         int `json:"total_scans"`
		InfectedDetected   int `json:"infected_detected"`
		UninfectedDetected int `json:"uninfected_detected"`
	}
	decode(t, resp, &got)
	assert.Equal(2, got.TotalScans)
	assert.Equal(1, got.InfectedDetected)
	assert.Equal(1, got.UninfectedDetected)
}

func Test_AdminStats(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)
	adminTok, _ := ts.register("root@example.com", "pw123456", "admin")
	docTok, _ := ts.register("doc@example.com", "pw123456", "doctor")

	resp := ts.uploadImage(docTok, "/api/predict", "parasitized_a.png", []byte("one"), nil)
	require.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.get(adminTok, "/api/admin/stats")
	require.Equal(http.StatusOK, resp.StatusCode)

	var got struct {
		TotalScans       int `json:"total_scans"`
		TotalUsers       int `json:"total_users"`
		PredictionsToday int `json:"predictions_today"`
	}
	decode(t, resp, &got)
	assert.Equal(1, got.TotalScans)
	assert.Equal(2, got.TotalUsers)
	assert.Equal(1, got.PredictionsToday)
}
