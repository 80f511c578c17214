package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paradetect/paradetect/internal/model"
	"github.com/paradetect/paradetect/internal/repository"
	"go.uber.org/zap"
)

var allowedImageExts = []string{"png", "jpg", "jpeg"}

// readImageUpload pulls the "file" part out of the multipart form and
// enforces the type and size limits.
func (s *Server) readImageUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "File must be an image")
		return nil, "", false
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	allowed := false
	for _, e := range allowedImageExts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		respondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(allowedImageExts, ", ")))
		return nil, "", false
	}

	image, err := io.ReadAll(io.LimitReader(file, s.conf.Upload.MaxFileBytes+1))
	if err != nil {
		s.internalError(w, "Failed to read upload", err)
		return nil, "", false
	}

	if int64(len(image)) > s.conf.Upload.MaxFileBytes {
		respondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("File too large. Maximum size: %dMB", s.conf.Upload.MaxFileBytes/1024/1024))
		return nil, "", false
	}

	return image, header.Filename, true
}

func (s *Server) handlePredictPublic(w http.ResponseWriter, r *http.Request) {
	image, filename, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}

	result, err := s.predictor.Predict(image, filename)
	if err != nil {
		s.internalError(w, "Prediction failed", err)
		return
	}

	s.log.Info("public prediction",
		zap.String("prediction", result.Prediction),
		zap.Float64("confidence", result.Confidence))

	respondJSON(w, http.StatusOK, map[string]any{
		"prediction": result.Prediction,
		"confidence": round4(result.Confidence),
		"probabilities": map[string]float64{
			model.ClassParasitized: round4(result.ProbParasitized),
			model.ClassUninfected:  round4(result.ProbUninfected),
		},
		"filename": filename,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	image, filename, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}

	var patientID *int
	if v := r.FormValue("patient_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "patient_id must be an integer")
			return
		}
		patientID = &id
	}

	imagePath := filepath.Join(s.conf.Upload.Dir, "images",
		fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(filename)))
	if err := os.WriteFile(imagePath, image, 0o644); err != nil {
		s.internalError(w, "Failed to store upload", err)
		return
	}

	result, err := s.predictor.Predict(image, filename)
	if err != nil {
		s.internalError(w, "Prediction failed", err)
		return
	}

	now := time.Now().UTC()
	pred := &model.Prediction{
		UserID:          user.ID,
		PatientID:       patientID,
		ImagePath:       imagePath,
		Prediction:      result.Prediction,
		Confidence:      result.Confidence,
		ProbParasitized: result.ProbParasitized,
		ProbUninfected:  result.ProbUninfected,
		Status:          "pending",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.AddPrediction(r.Context(), pred); err != nil {
		s.internalError(w, "Prediction failed", err)
		return
	}

	s.log.Info("prediction saved",
		zap.String("prediction", result.Prediction),
		zap.Float64("confidence", result.Confidence),
		zap.String("user", user.Email))

	respondJSON(w, http.StatusOK, map[string]any{
		"id":         pred.ID,
		"prediction": result.Prediction,
		"confidence": round4(result.Confidence),
		"probabilities": map[string]float64{
			model.ClassParasitized: round4(result.ProbParasitized),
			model.ClassUninfected:  round4(result.ProbUninfected),
		},
		"filename":   filename,
		"created_at": pred.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	preds, err := s.repo.GetPredictionsByUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, "Failed to fetch predictions", err)
		return
	}

	q := r.URL.Query()

	if v := q.Get("start_date"); v != "" {
		if start, err := time.Parse(time.RFC3339, v); err == nil {
			preds = filterPredictions(preds, func(p model.Prediction) bool {
				return !p.CreatedAt.Before(start)
			})
		}
	}
	if v := q.Get("end_date"); v != "" {
		if end, err := time.Parse(time.RFC3339, v); err == nil {
			preds = filterPredictions(preds, func(p model.Prediction) bool {
				return !p.CreatedAt.After(end)
			})
		}
	}

	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	if skip > len(preds) {
		skip = len(preds)
	}
	preds = preds[skip:]
	if len(preds) > limit {
		preds = preds[:limit]
	}

	if preds == nil {
		preds = []model.Prediction{}
	}
	respondJSON(w, http.StatusOK, preds)
}

func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Prediction not found")
		return
	}

	pred, err := s.repo.GetPrediction(r.Context(), id)
	if err != nil || pred.UserID != user.ID {
		respondDetail(w, http.StatusNotFound, "Prediction not found")
		return
	}

	pred.DoctorNotes = r.FormValue("notes")
	pred.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdatePrediction(r.Context(), pred); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondDetail(w, http.StatusNotFound, "Prediction not found")
			return
		}
		s.internalError(w, "Failed to update notes", err)
		return
	}

	s.log.Info("notes updated", zap.Int("prediction", id), zap.String("user", user.Email))

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notes updated successfully"})
}

func filterPredictions(preds []model.Prediction, keep func(model.Prediction) bool) []model.Prediction {
	out := preds[:0]
	for _, p := range preds {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
