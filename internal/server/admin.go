package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paradetect/paradetect/internal/model"
	"go.uber.org/zap"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.GetUsers(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch users", err)
		return
	}

	infos := make([]model.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.Info())
	}

	respondJSON(w, http.StatusOK, infos)
}

// handleUpdateUser applies the admin edit form: any of full_name,
// role and is_active may be present.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := s.repo.GetUserByID(r.Context(), id)
	if err != nil {
		respondDetail(w, http.StatusNotFound, "User not found")
		return
	}

	if err := r.ParseForm(); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid form")
		return
	}

	if v := r.FormValue("full_name"); v != "" {
		user.FullName = v
	}
	if v := r.FormValue("role"); v != "" {
		if !model.ValidRole(v) {
			respondDetail(w, http.StatusBadRequest, "Invalid role")
			return
		}
		user.Role = v
	}
	if v := r.FormValue("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "is_active must be a boolean")
			return
		}
		user.IsActive = active
	}

	if err := s.repo.UpdateUser(r.Context(), user); err != nil {
		s.internalError(w, "Failed to update user", err)
		return
	}

	s.log.Info("user updated by admin",
		zap.String("admin", userFrom(r.Context()).Email), zap.Int("user", id))

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user.Info(),
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := userFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusNotFound, "User not found")
		return
	}

	if id == admin.ID {
		respondDetail(w, http.StatusBadRequest, "Cannot delete yourself")
		return
	}

	if _, err := s.repo.GetUserByID(r.Context(), id); err != nil {
		respondDetail(w, http.StatusNotFound, "User not found")
		return
	}

	if err := s.repo.DeleteUser(r.Context(), id); err != nil {
		s.internalError(w, "Failed to delete user", err)
		return
	}

	s.log.Info("user deleted by admin",
		zap.String("admin", admin.Email), zap.Int("user", id))

	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (s *Server) handleAdminAppointments(w http.ResponseWriter, r *http.Request) {
	apts, err := s.repo.GetAppointments(r.Context())
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

func (s *Server) handleAdminPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := s.repo.GetPredictions(r.Context())
	if err != nil {
		s.internalError(w, "Failed to fetch predictions", err)
		return
	}

	if preds == nil {
		preds = []model.Prediction{}
	}
	respondJSON(w, http.StatusOK, preds)
}
