package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paradetect/paradetect/internal/auth"
	"github.com/paradetect/paradetect/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        model.UserInfo `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondDetail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, accessToken, err := s.auth.Register(r.Context(), req.Email, req.Password, req.FullName, req.Role, req.Phone)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		s.internalError(w, "Registration failed", err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        user.Info(),
	})
}

// handleLogin accepts form-encoded credentials under the OAuth2
// password-grant field names. This encoding is frontend contract;
// don't switch it to JSON.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, accessToken, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondDetail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		s.internalError(w, "Login failed", err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        user.Info(),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, userFrom(r.Context()).Info())
}

type phoneRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		respondDetail(w, http.StatusBadRequest, "phone is required")
		return
	}

	v, err := s.auth.SendOTP(r.Context(), req.Phone)
	if err != nil {
		s.internalError(w, "Failed to send OTP", err)
		return
	}

	// Demo behavior: echo the code instead of sending an SMS.
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "OTP sent successfully",
		"otp":        v.OTP,
		"expires_in": 300,
	})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.OTP == "" {
		respondDetail(w, http.StatusBadRequest, "phone and otp are required")
		return
	}

	if err := s.auth.VerifyOTP(r.Context(), req.Phone, req.OTP); err != nil {
		if errors.Is(err, auth.ErrInvalidOTP) {
			respondDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}
		s.internalError(w, "Verification failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Phone verified successfully",
	})
}
