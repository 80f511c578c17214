package server

import (
	"net/http"
	"time"

	"github.com/paradetect/paradetect/internal/model"
)

type stats struct {
	TotalScans         int `json:"total_scans"`
	InfectedDetected   int `json:"infected_detected"`
	UninfectedDetected int `json:"uninfected_detected"`
	TotalUsers         int `json:"total_users"`
	TotalPatients      int `json:"total_patients"`
}

type adminStats struct {
	stats
	PredictionsToday     int `json:"predictions_today"`
	PredictionsThisWeek  int `json:"predictions_this_week"`
	PredictionsThisMonth int `json:"predictions_this_month"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	preds, err := s.repo.GetPredictionsByUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, "Failed to fetch stats", err)
		return
	}

	patients, err := s.repo.GetPatientsByUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, "Failed to fetch stats", err)
		return
	}

	infected := 0
	for _, p := range preds {
		if p.Prediction == model.ClassParasitized {
			infected++
		}
	}

	respondJSON(w, http.StatusOK, stats{
		TotalScans:         len(preds),
		InfectedDetected:   infected,
		UninfectedDetected: len(preds) - infected,
		TotalUsers:         1,
		TotalPatients:      len(patients),
	})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	preds, err := s.repo.GetPredictions(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch stats", err)
		return
	}

	users, err := s.repo.GetUsers(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch stats", err)
		return
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	out := adminStats{}
	out.TotalScans = len(preds)
	out.TotalUsers = len(users)

	for _, p := range preds {
		if p.Prediction == model.ClassParasitized {
			out.InfectedDetected++
		}
		if !p.CreatedAt.Before(today) {
			out.PredictionsToday++
		}
		if !p.CreatedAt.Before(weekAgo) {
			out.PredictionsThisWeek++
		}
		if !p.CreatedAt.Before(monthAgo) {
			out.PredictionsThisMonth++
		}
	}
	out.UninfectedDetected = out.TotalScans - out.InfectedDetected

	// Total patient records across all users.
	for _, u := range users {
		patients, err := s.repo.GetPatientsByUser(r.Context(), u.ID)
		if err != nil {
			s.internalError(w, "Failed to fetch stats", err)
			return
		}
		out.TotalPatients += len(patients)
	}

	respondJSON(w, http.StatusOK, out)
}
