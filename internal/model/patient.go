package model

import "time"

type Patient struct {
	ID        int       `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name,omitempty"`
	Age       int       `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
