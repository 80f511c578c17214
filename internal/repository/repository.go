package repository

import (
	"context"
	"errors"

	"github.com/paradetect/paradetect/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
)

type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	AddUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int) error
	GetUsers(ctx context.Context) ([]model.User, error)

	AddPatient(ctx context.Context, patient *model.Patient) error
	GetPatientByPatientID(ctx context.Context, patientID string) (*model.Patient, error)
	GetPatientByID(ctx context.Context, id int) (*model.Patient, error)
	GetPatientsByUser(ctx context.Context, userID int) ([]model.Patient, error)

	AddPrediction(ctx context.Context, pred *model.Prediction) error
	GetPrediction(ctx context.Context, id int) (*model.Prediction, error)
	UpdatePrediction(ctx context.Context, pred *model.Prediction) error
	GetPredictionsByUser(ctx context.Context, userID int) ([]model.Prediction, error)
	GetPredictions(ctx context.Context) ([]model.Prediction, error)

	AddAppointment(ctx context.Context, apt *model.Appointment) error
	GetAppointment(ctx context.Context, id int) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, apt *model.Appointment) error
	DeleteAppointment(ctx context.Context, id int) error
	GetAppointmentsByPatient(ctx context.Context, patientID int) ([]model.Appointment, error)
	GetAppointmentsByDoctor(ctx context.Context, doctorID int) ([]model.Appointment, error)
	GetAppointments(ctx context.Context) ([]model.Appointment, error)

	AddOTP(ctx context.Context, v *model.PhoneVerification) error
	FindOTP(ctx context.Context, phone, otp string) (*model.PhoneVerification, error)
	MarkOTPVerified(ctx context.Context, id int) error
}
