package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paradetect/paradetect/internal/auth"
	"github.com/paradetect/paradetect/internal/chatbot"
	"github.com/paradetect/paradetect/internal/config"
	"github.com/paradetect/paradetect/internal/predictor"
	"github.com/paradetect/paradetect/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const apiVersion = "2.0.0"

var Module = fx.Options(
	fx.Provide(
		New,
	),
)

type Server struct {
	log       *zap.Logger
	conf      *config.Config
	repo      repository.Repository
	auth      *auth.Service
	predictor predictor.Predictor
	bot       *chatbot.Bot

	server *http.Server
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    *config.Config
	Repo      repository.Repository
	Auth      *auth.Service
	Predictor predictor.Predictor
	Bot       *chatbot.Bot
}

func New(p Params) (*Server, error) {
	s := &Server{
		log:       p.Log,
		conf:      p.Config,
		repo:      p.Repo,
		auth:      p.Auth,
		predictor: p.Predictor,
		bot:       p.Bot,
	}

	if err := os.MkdirAll(filepath.Join(p.Config.Upload.Dir, "images"), 0o755); err != nil {
		return nil, err
	}

	s.server = &http.Server{
		Addr:    p.Config.ListenAddr(),
		Handler: s.routes(),
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	root := chi.NewRouter()
	root.Use(s.logRequests)

	// No auth
	root.Get("/", s.handleRoot)
	root.Get("/health", s.handleHealth)
	root.Post("/predict", s.handlePredictPublic)
	root.Post("/api/auth/register", s.handleRegister)
	root.Post("/api/auth/login", s.handleLogin)
	root.Post("/api/auth/send-otp", s.handleSendOTP)
	root.Post("/api/auth/verify-otp", s.handleVerifyOTP)
	root.Post("/api/chatbot/public", s.handleChatPublic)
	root.Get("/api/doctors", s.handleListDoctors)

	// Bearer auth
	root.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/auth/me", s.handleMe)

		r.Post("/api/patients", s.handleCreatePatient)
		r.Get("/api/patients", s.handleListPatients)
		r.Get("/api/patients/{id}", s.handleGetPatient)
		r.Get("/api/patients/{id}/history", s.handlePatientHistory)

		r.Post("/api/predict", s.handlePredict)
		r.Get("/api/predictions", s.handleListPredictions)
		r.Put("/api/predictions/{id}/notes", s.handleUpdateNotes)

		r.Get("/api/stats", s.handleStats)

		r.Post("/api/appointments", s.handleCreateAppointment)
		r.Get("/api/appointments", s.handleListAppointments)
		r.Get("/api/appointments/{id}", s.handleGetAppointment)
		r.Put("/api/appointments/{id}", s.handleUpdateAppointment)
		r.Delete("/api/appointments/{id}", s.handleDeleteAppointment)

		r.Post("/api/chatbot", s.handleChat)

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/api/admin/stats", s.handleAdminStats)
			r.Get("/api/admin/users", s.handleListUsers)
			r.Put("/api/admin/users/{id}", s.handleUpdateUser)
			r.Delete("/api/admin/users/{id}", s.handleDeleteUser)
			r.Get("/api/admin/appointments", s.handleAdminAppointments)
			r.Get("/api/admin/predictions", s.handleAdminPredictions)
		})
	})

	return root
}

// Handler returns the root HTTP handler, for serving the API
// in-process.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.server.Shutdown,
	})
}

func (s *Server) Start(_ context.Context) error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("error running server", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":        "ParaDetect AI API",
		"version":     apiVersion,
		"description": "Professional AI-powered malaria detection system",
		"features": []string{
			"AI Malaria Detection",
			"User Authentication",
			"Patient Management",
			"Advanced Analytics",
			"AI Chatbot",
			"Admin Dashboard",
		},
		"status": "operational",
		"endpoints": map[string]string{
			"health": "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"classes":   []string{"Parasitized", "Uninfected"},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   apiVersion,
	})
}
