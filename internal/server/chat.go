package server

import (
	"net/http"
	"time"

	"github.com/paradetect/paradetect/internal/chatbot"
	"go.uber.org/zap"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	message := r.FormValue("message")
	if message == "" {
		respondDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	// The latest scan gives the bot context for "my result"
	// questions.
	var userCtx *chatbot.Context
	if preds, err := s.repo.GetPredictionsByUser(r.Context(), user.ID); err == nil && len(preds) > 0 {
		userCtx = &chatbot.Context{
			Prediction: preds[0].Prediction,
			Confidence: preds[0].Confidence,
		}
	}

	s.log.Info("chatbot query", zap.String("user", user.Email))

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   message,
		"response":  s.bot.Reply(message, userCtx),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleChatPublic(w http.ResponseWriter, r *http.Request) {
	message := r.FormValue("message")
	if message == "" {
		respondDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   message,
		"response":  s.bot.Reply(message, nil),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
