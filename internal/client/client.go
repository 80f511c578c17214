// Package client provides typed access to the ParaDetect domain
// endpoints over the session's shared HTTP binding. It never touches
// the token itself; attaching credentials is the session's job.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paradetect/paradetect/internal/model"
	"github.com/paradetect/paradetect/internal/session"
)

type Client struct {
	baseURL string
	binding *session.Binding
}

func New(sess *session.Manager) *Client {
	return &Client{
		baseURL: sess.BaseURL(),
		binding: sess.Binding(),
	}
}

// Stats is the per-user dashboard summary.
type Stats struct {
	TotalScans         int `json:"total_scans"`
	InfectedDetected   int `json:"infected_detected"`
	UninfectedDetected int `json:"uninfected_detected"`
	TotalUsers         int `json:"total_users"`
	TotalPatients      int `json:"total_patients"`
}

// AdminStats adds the platform-wide counters.
type AdminStats struct {
	Stats
	PredictionsToday     int `json:"predictions_today"`
	PredictionsThisWeek  int `json:"predictions_this_week"`
	PredictionsThisMonth int `json:"predictions_this_month"`
}

// PredictResult is the classification reply for an uploaded image.
type PredictResult struct {
	ID            int                `json:"id,omitempty"`
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	Filename      string             `json:"filename"`
}

// ChatReply is a chatbot exchange.
type ChatReply struct {
	Message   string `json:"message"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.getJSON(ctx, "/api/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := c.getJSON(ctx, "/api/admin/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict uploads an image for an authenticated scan, optionally
// linked to a patient record.
func (c *Client) Predict(ctx context.Context, image []byte, filename string, patientID *int) (*PredictResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if patientID != nil {
		if err := mw.WriteField("patient_id", strconv.Itoa(*patientID)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/predict", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out PredictResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Predictions(ctx context.Context) ([]model.Prediction, error) {
	var out []model.Prediction
	if err := c.getJSON(ctx, "/api/predictions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateNotes attaches doctor notes to a prediction.
func (c *Client) UpdateNotes(ctx context.Context, predictionID int, notes string) error {
	form := url.Values{}
	form.Set("notes", notes)

	path := fmt.Sprintf("/api/predictions/%d/notes", predictionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, nil)
}

func (c *Client) CreatePatient(ctx context.Context, patientID, name string, age int, gender string) (*model.Patient, error) {
	body := map[string]any{
		"patient_id": patientID,
		"name":       name,
		"age":        age,
		"gender":     gender,
	}

	var out model.Patient
	if err := c.postJSON(ctx, "/api/patients", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Patients(ctx context.Context) ([]model.Patient, error) {
	var out []model.Patient
	if err := c.getJSON(ctx, "/api/patients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Doctors(ctx context.Context) ([]model.DoctorInfo, error) {
	var out []model.DoctorInfo
	if err := c.getJSON(ctx, "/api/doctors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, doctorID int, at time.Time, reason string) (*model.Appointment, error) {
	body := map[string]any{
		"doctor_id":        doctorID,
		"appointment_date": at.Format(time.RFC3339),
		"reason":           reason,
	}

	var out model.Appointment
	if err := c.postJSON(ctx, "/api/appointments", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Appointments(ctx context.Context) ([]model.AppointmentDetails, error) {
	var out []model.AppointmentDetails
	if err := c.getJSON(ctx, "/api/appointments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminUsers(ctx context.Context) ([]model.UserInfo, error) {
	var out []model.UserInfo
	if err := c.getJSON(ctx, "/api/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chat sends a message to the assistant. The backend folds the
// user's latest scan into the answer when relevant.
func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	form := url.Values{}
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chatbot", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out ChatReply
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do sends through the session binding, so the bearer header and the
// 401 policy apply without this package knowing about either.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.binding.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &session.APIError{StatusCode: resp.StatusCode}

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

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
