package model

import "time"

const (
	ClassParasitized = "Parasitized"
	ClassUninfected  = "Uninfected"
)

type Prediction struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	PatientID       *int      `json:"patient_id"`
	ImagePath       string    `json:"image_path"`
	Prediction      string    `json:"prediction"`
	Confidence      float64   `json:"confidence"`
	ProbParasitized float64   `json:"prob_parasitized"`
	ProbUninfected  float64   `json:"prob_uninfected"`
	DoctorNotes     string    `json:"doctor_notes,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
