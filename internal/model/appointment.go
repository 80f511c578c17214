package model

import "time"

const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// ValidAppointmentStatus reports whether status is a known
// appointment state.
func ValidAppointmentStatus(status string) bool {
	return status == AppointmentScheduled ||
		status == AppointmentCompleted ||
		status == AppointmentCancelled
}

type Appointment struct {
	ID              int       `json:"id"`
	PatientID       int       `json:"patient_id"`
	DoctorID        int       `json:"doctor_id"`
	AppointmentDate time.Time `json:"appointment_date"`
	Reason          string    `json:"reason,omitempty"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppointmentDetails is an appointment enriched with the names of
// both parties for listing views.
type AppointmentDetails struct {
	Appointment
	PatientName          string `json:"patient_name,omitempty"`
	PatientEmail         string `json:"patient_email,omitempty"`
	DoctorName           string `json:"doctor_name,omitempty"`
	DoctorEmail          string `json:"doctor_email,omitempty"`
	DoctorSpecialization string `json:"doctor_specialization,omitempty"`
}
