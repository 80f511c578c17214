package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paradetect/paradetect/internal/model"
	"github.com/paradetect/paradetect/internal/repository"
	"go.uber.org/zap"
)

func (s *Server) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.GetUsers(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch doctors", err)
		return
	}

	doctors := []model.DoctorInfo{}
	for _, u := range users {
		if u.Role == model.RoleDoctor && u.IsActive {
			doctors = append(doctors, u.Doctor())
		}
	}

	respondJSON(w, http.StatusOK, doctors)
}

type createAppointmentRequest struct {
	DoctorID        int       `json:"doctor_id"`
	AppointmentDate time.Time `json:"appointment_date"`
	Reason          string    `json:"reason"`
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doctor, err := s.repo.GetUserByID(r.Context(), req.DoctorID)
	if err != nil || doctor.Role != model.RoleDoctor || !doctor.IsActive {
		respondDetail(w, http.StatusNotFound, "Doctor not found or inactive")
		return
	}

	if !req.AppointmentDate.After(time.Now().UTC()) {
		respondDetail(w, http.StatusBadRequest, "Appointment date must be in the future")
		return
	}

	now := time.Now().UTC()
	apt := &model.Appointment{
		PatientID:       user.ID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate.UTC(),
		Reason:          req.Reason,
		Status:          model.AppointmentScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.AddAppointment(r.Context(), apt); err != nil {
		s.internalError(w, "Failed to create appointment", err)
		return
	}

	s.log.Info("appointment created",
		zap.String("patient", user.Email),
		zap.String("doctor", doctor.Email))

	respondJSON(w, http.StatusOK, apt)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var apts []model.Appointment
	var err error
	if user.Role == model.RoleDoctor {
		apts, err = s.repo.GetAppointmentsByDoctor(r.Context(), user.ID)
	} else {
		apts, err = s.repo.GetAppointmentsByPatient(r.Context(), user.ID)
	}
	if err != nil {
		s.internalError(w, "Failed to fetch appointments", err)
		return
	}

	details, err := s.appointmentDetails(r, apts)
	if err != nil {
		s.internalError(w, "Failed to fetch appointments", err)
		return
	}

	respondJSON(w, http.StatusOK, details)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	apt, ok := s.findAppointment(w, r)
	if !ok {
		return
	}

	if user.Role != model.RoleAdmin && apt.PatientID != user.ID && apt.DoctorID != user.ID {
		respondDetail(w, http.StatusForbidden, "Not authorized to view this appointment")
		return
	}

	details, err := s.appointmentDetails(r, []model.Appointment{*apt})
	if err != nil {
		s.internalError(w, "Failed to fetch appointment", err)
		return
	}

	respondJSON(w, http.StatusOK, details[0])
}

type updateAppointmentRequest struct {
	AppointmentDate *time.Time `json:"appointment_date"`
	Reason          *string    `json:"reason"`
	Status          *string    `json:"status"`
	Notes           *string    `json:"notes"`
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	apt, ok := s.findAppointment(w, r)
	if !ok {
		return
	}

	if user.Role != model.RoleAdmin && apt.PatientID != user.ID && apt.DoctorID != user.ID {
		respondDetail(w, http.StatusForbidden, "Not authorized to update this appointment")
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.AppointmentDate != nil {
		if !req.AppointmentDate.After(time.Now().UTC()) {
			respondDetail(w, http.StatusBadRequest, "Appointment date must be in the future")
			return
		}
		apt.AppointmentDate = req.AppointmentDate.UTC()
	}
	if req.Reason != nil {
		apt.Reason = *req.Reason
	}
	if req.Status != nil {
		if !model.ValidAppointmentStatus(*req.Status) {
			respondDetail(w, http.StatusBadRequest, "Invalid status")
			return
		}
		apt.Status = *req.Status
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}
	apt.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateAppointment(r.Context(), apt); err != nil {
		s.internalError(w, "Failed to update appointment", err)
		return
	}

	s.log.Info("appointment updated",
		zap.Int("appointment", apt.ID), zap.String("user", user.Email))

	respondJSON(w, http.StatusOK, apt)
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	apt, ok := s.findAppointment(w, r)
	if !ok {
		return
	}

	// Only the booking patient or an admin may cancel outright.
	if user.Role != model.RoleAdmin && apt.PatientID != user.ID {
		respondDetail(w, http.StatusForbidden, "Not authorized to delete this appointment")
		return
	}

	if err := s.repo.DeleteAppointment(r.Context(), apt.ID); err != nil {
		s.internalError(w, "Failed to delete appointment", err)
		return
	}

	s.log.Info("appointment deleted",
		zap.Int("appointment", apt.ID), zap.String("user", user.Email))

	respondJSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}

func (s *Server) findAppointment(w http.ResponseWriter, r *http.Request) (*model.Appointment, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Appointment not found")
		return nil, false
	}

	apt, err := s.repo.GetAppointment(r.Context(), id)
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Appointment not found")
		return nil, false
	}

	return apt, true
}

// appointmentDetails joins patient and doctor names onto each
// appointment for the listing views.
func (s *Server) appointmentDetails(r *http.Request, apts []model.Appointment) ([]model.AppointmentDetails, error) {
	details := make([]model.AppointmentDetails, 0, len(apts))
	for _, apt := range apts {
		d := model.AppointmentDetails{Appointment: apt}

		if patient, err := s.repo.GetUserByID(r.Context(), apt.PatientID); err == nil {
			d.PatientName = patient.FullName
			d.PatientEmail = patient.Email
		} else if err != repository.ErrNotFound {
			return nil, err
		}

		if doctor, err := s.repo.GetUserByID(r.Context(), apt.DoctorID); err == nil {
			d.DoctorName = doctor.FullName
			d.DoctorEmail = doctor.Email
			d.DoctorSpecialization = doctor.Specialization
		} else if err != repository.ErrNotFound {
			return nil, err
		}

		details = append(details, d)
	}
	return details, nil
}
