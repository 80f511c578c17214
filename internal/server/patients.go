package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paradetect/paradetect/internal/model"
)

type createPatientRequest struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatientID == "" {
		respondDetail(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	if _, err := s.repo.GetPatientByPatientID(r.Context(), req.PatientID); err == nil {
		respondDetail(w, http.StatusBadRequest, "Patient ID already exists")
		return
	}

	patient := &model.Patient{
		PatientID: req.PatientID,
		Name:      req.Name,
		Age:       req.Age,
		Gender:    req.Gender,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddPatient(r.Context(), patient); err != nil {
		s.internalError(w, "Failed to create patient", err)
		return
	}

	respondJSON(w, http.StatusOK, patient)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	patients, err := s.repo.GetPatientsByUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, "Failed to fetch patients", err)
		return
	}

	if patients == nil {
		patients = []model.Patient{}
	}
	respondJSON(w, http.StatusOK, patients)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Patient not found")
		return
	}

	patient, err := s.repo.GetPatientByID(r.Context(), id)
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Patient not found")
		return
	}

	if user.Role != model.RoleAdmin && user.Role != model.RoleDoctor && patient.UserID != user.ID {
		respondDetail(w, http.StatusForbidden, "Not authorized to view this patient")
		return
	}

	respondJSON(w, http.StatusOK, patient)
}

func (s *Server) handlePatientHistory(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Patient not found")
		return
	}

	preds, err := s.repo.GetPredictionsByUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, "Failed to fetch history", err)
		return
	}

	history := []model.Prediction{}
	for _, p := range preds {
		if p.PatientID != nil && *p.PatientID == id {
			history = append(history, p)
		}
	}

	respondJSON(w, http.StatusOK, history)
}
