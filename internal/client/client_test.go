package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/paradetect/paradetect/internal/auth"
	"github.com/paradetect/paradetect/internal/chatbot"
	"github.com/paradetect/paradetect/internal/config"
	"github.com/paradetect/paradetect/internal/model"
	"github.com/paradetect/paradetect/internal/predictor"
	"github.com/paradetect/paradetect/internal/repository"
	"github.com/paradetect/paradetect/internal/server"
	"github.com/paradetect/paradetect/internal/session"
	"github.com/paradetect/paradetect/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startBackend runs the full API over httptest and returns its URL.
func startBackend(t *testing.T) string {
	t.Helper()

	conf := &config.Config{}
	conf.Token.Secret = "e2e-secret-e2e-secret"
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

	srv, err := server.New(server.Params{
		Log:       zap.NewNop(),
		Config:    conf,
		Repo:      repo,
		Auth:      authSvc,
		Predictor: predictor.NewStub(),
		Bot:       chatbot.New(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newSession(t *testing.T, baseURL string) *session.Manager {
	t.Helper()

	m := session.NewManager(baseURL, &session.MemoryStore{},
		session.NewBinding(nil), zap.NewNop())
	require.NoError(t, m.Resolve(context.Background()))
	return m
}

func Test_EndToEnd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	baseURL := startBackend(t)
	sess := newSession(t, baseURL)

	user, err := sess.Register(ctx, "doc@example.com", "pw123456", "Doc", "doctor", "")
	require.NoError(err)
	assert.Equal(model.RoleDoctor, user.Role)
	require.True(sess.IsAuthenticated())

	api := New(sess)

	patient, err := api.CreatePatient(ctx, "P-001", "Jane Roe", 34, "female")
	require.NoError(err)

	result, err := api.Predict(ctx, []byte("smear"), "parasitized_cell.png", &patient.ID)
	require.NoError(err)
	assert.Equal(model.ClassParasitized, result.Prediction)
	require.NotZero(result.ID)

	require.NoError(api.UpdateNotes(ctx, result.ID, "confirmed under microscope"))

	preds, err := api.Predictions(ctx)
	require.NoError(err)
	require.Len(preds, 1)
	assert.Equal("confirmed under microscope", preds[0].DoctorNotes)

	stats, err := api.Stats(ctx)
	require.NoError(err)
	assert.Equal(1, stats.TotalScans)
	assert.Equal(1, stats.InfectedDetected)
	assert.Equal(1, stats.TotalPatients)

	reply, err := api.Chat(ctx, "what does my result mean")
	require.NoError(err)
	assert.Contains(reply.Response, model.ClassParasitized)

	// A second session books an appointment with the doctor.
	patientSess := newSession(t, baseURL)
	_, err = patientSess.Register(ctx, "jane@example.com", "pw123456", "Jane", "patient", "")
	require.NoError(err)
	patientAPI := New(patientSess)

	doctors, err := patientAPI.Doctors(ctx)
	require.NoError(err)
	require.Len(doctors, 1)

	apt, err := patientAPI.CreateAppointment(ctx, doctors[0].ID, time.Now().UTC().Add(time.Hour), "checkup")
	require.NoError(err)
	assert.Equal(model.AppointmentScheduled, apt.Status)

	apts, err := api.Appointments(ctx)
	require.NoError(err)
	require.Len(apts, 1)
	assert.Equal("jane@example.com", apts[0].PatientEmail)
}

func Test_AdminOnlyEndpoints(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	baseURL := startBackend(t)
	sess := newSession(t, baseURL)

	_, err := sess.Register(ctx, "patient@example.com", "pw123456", "P", "patient", "")
	require.NoError(err)

	api := New(sess)

	_, err = api.AdminStats(ctx)
	var apiErr *session.APIError
	require.ErrorAs(err, &apiErr)
	assert.Equal(http.StatusForbidden, apiErr.StatusCode)
	assert.Equal("Admin access required", apiErr.Detail)

	adminSess := newSession(t, baseURL)
	_, err = adminSess.Register(ctx, "root@example.com", "pw123456", "Root", "admin", "")
	require.NoError(err)
	require.True(adminSess.IsAdmin())

	adminAPI := New(adminSess)

	stats, err := adminAPI.AdminStats(ctx)
	require.NoError(err)
	assert.Equal(2, stats.TotalUsers)

	users, err := adminAPI.AdminUsers(ctx)
	require.NoError(err)
	assert.Len(users, 2)
}

func Test_SessionExpiryClearsClient(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	baseURL := startBackend(t)
	sess := newSession(t, baseURL)

	_, err := sess.Register(ctx, "doc@example.com", "pw123456", "Doc", "doctor", "")
	require.NoError(err)

	api := New(sess)

	// Corrupt the bearer token behind the session's back, as an
	// expired token would look to the backend.
	sess.Binding().SetToken("stale-token")

	_, err = api.Stats(ctx)
	var apiErr *session.APIError
	require.ErrorAs(err, &apiErr)
	assert.Equal(http.StatusUnauthorized, apiErr.StatusCode)

	// The 401 policy tore the session down.
	assert.False(sess.IsAuthenticated())
	assert.Empty(sess.Token())
}
