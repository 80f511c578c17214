package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"

	"github.com/paradetect/paradetect/internal/config"
	"github.com/paradetect/paradetect/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	errTableFileIsDir = errors.New("table file is dir")
)

type Data struct {
	Users        []model.User              `json:"users"`
	Patients     []model.Patient           `json:"patients"`
	Predictions  []model.Prediction        `json:"predictions"`
	Appointments []model.Appointment       `json:"appointments"`
	OTPs         []model.PhoneVerification `json:"phone_verifications"`
}

type jsonRepo struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *Data
}

type jsonParams struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

func NewJSON(p jsonParams) (Repository, error) {
	r, err := Open(p.Config.Repo.Path, p.Log)
	if err != nil {
		return nil, err
	}

	p.LC.Append(fx.Hook{
		OnStop: r.stop,
	})

	return r, nil
}

// Open loads (or initializes) the store backing file without any
// lifecycle management. NewJSON is the fx-managed wrapper.
func Open(path string, log *zap.Logger) (*jsonRepo, error) {
	r := &jsonRepo{
		path: path,
		log:  log,
		data: &Data{},
	}

	err := r.readfile()
	if err != nil {
		// only log, data will be empty and will overwrite on the
		// next flush
		r.log.Warn("failed reading json repo data file", zap.Error(err))
	}

	return r, nil
}

func (r *jsonRepo) stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writefile()
}

func (r *jsonRepo) readfile() error {
	finfo, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errTableFileIsDir
	}

	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(&r.data)
}

// writefile must be called with r.mu held.
func (r *jsonRepo) writefile() error {
	f, err := os.Create(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}

	_, err = f.Write(b)
	return err
}

// flush persists after every mutation so a crash loses at most the
// in-flight request.
func (r *jsonRepo) flush() {
	if err := r.writefile(); err != nil {
		r.log.Error("failed writing json repo data file", zap.Error(err))
	}
}

func nextID[T any](items []T, id func(T) int) int {
	next := 1
	for _, it := range items {
		if id(it) >= next {
			next = id(it) + 1
		}
	}
	return next
}

// Users

func (r *jsonRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.data.Users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) GetUserByID(_ context.Context, id int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.data.Users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) AddUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = nextID(r.data.Users, func(u model.User) int { return u.ID })
	r.data.Users = append(r.data.Users, *user)
	r.flush()
	return nil
}

func (r *jsonRepo) UpdateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.data.Users {
		if u.ID == user.ID {
			r.data.Users[i] = *user
			r.flush()
			return nil
		}
	}

	return ErrNotFound
}

func (r *jsonRepo) DeleteUser(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.data.Users {
		if u.ID == id {
			r.data.Users = append(r.data.Users[:i], r.data.Users[i+1:]...)
			r.flush()
			return nil
		}
	}

	return ErrNotFound
}

func (r *jsonRepo) GetUsers(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]model.User, len(r.data.Users))
	copy(users, r.data.Users)
	return users, nil
}

// Patients

func (r *jsonRepo) AddPatient(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient.ID = nextID(r.data.Patients, func(p model.Patient) int { return p.ID })
	r.data.Patients = append(r.data.Patients, *patient)
	r.flush()
	return nil
}

func (r *jsonRepo) GetPatientByPatientID(_ context.Context, patientID string) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.data.Patients {
		if p.PatientID == patientID {
			p := p
			return &p, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) GetPatientByID(_ context.Context, id int) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.data.Patients {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) GetPatientsByUser(_ context.Context, userID int) ([]model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var patients []model.Patient
	for _, p := range r.data.Patients {
		if p.UserID == userID {
			patients = append(patients, p)
		}
	}
	return patients, nil
}

// Predictions

func (r *jsonRepo) AddPrediction(_ context.Context, pred *model.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pred.ID = nextID(r.data.Predictions, func(p model.Prediction) int { return p.ID })
	r.data.Predictions = append(r.data.Predictions, *pred)
	r.flush()
	return nil
}

func (r *jsonRepo) GetPrediction(_ context.Context, id int) (*model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.data.Predictions {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) UpdatePrediction(_ context.Context, pred *model.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.data.Predictions {
		if p.ID == pred.ID {
			r.data.Predictions[i] = *pred
			r.flush()
			return nil
		}
	}

	return ErrNotFound
}

func (r *jsonRepo) GetPredictionsByUser(_ context.Context, userID int) ([]model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var preds []model.Prediction
	for _, p := range r.data.Predictions {
		if p.UserID == userID {
			preds = append(preds, p)
		}
	}
	sortNewestFirst(preds, func(p model.Prediction) int64 { return p.CreatedAt.UnixNano() })
	return preds, nil
}

func (r *jsonRepo) GetPredictions(_ context.Context) ([]model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	preds := make([]model.Prediction, len(r.data.Predictions))
	copy(preds, r.data.Predictions)
	sortNewestFirst(preds, func(p model.Prediction) int64 { return p.CreatedAt.UnixNano() })
	return preds, nil
}

// Appointments

func (r *jsonRepo) AddAppointment(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt.ID = nextID(r.data.Appointments, func(a model.Appointment) int { return a.ID })
	r.data.Appointments = append(r.data.Appointments, *apt)
	r.flush()
	return nil
}

func (r *jsonRepo) GetAppointment(_ context.Context, id int) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.data.Appointments {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) UpdateAppointment(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.data.Appointments {
		if a.ID == apt.ID {
			r.data.Appointments[i] = *apt
			r.flush()
			return nil
		}
	}

	return ErrNotFound
}

func (r *jsonRepo) DeleteAppointment(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.data.Appointments {
		if a.ID == id {
			r.data.Appointments = append(r.data.Appointments[:i], r.data.Appointments[i+1:]...)
			r.flush()
			return nil
		}
	}

	return ErrNotFound
}

func (r *jsonRepo) GetAppointmentsByPatient(_ context.Context, patientID int) ([]model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var apts []model.Appointment
	for _, a := range r.data.Appointments {
		if a.PatientID == patientID {
			apts = append(apts, a)
		}
	}
	sortNewestFirst(apts, func(a model.Appointment) int64 { return a.AppointmentDate.UnixNano() })
	return apts, nil
}

func (r *jsonRepo) GetAppointmentsByDoctor(_ context.Context, doctorID int) ([]model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var apts []model.Appointment
	for _, a := range r.data.Appointments {
		if a.DoctorID == doctorID {
			apts = append(apts, a)
		}
	}
	sortNewestFirst(apts, func(a model.Appointment) int64 { return a.AppointmentDate.UnixNano() })
	return apts, nil
}

func (r *jsonRepo) GetAppointments(_ context.Context) ([]model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apts := make([]model.Appointment, len(r.data.Appointments))
	copy(apts, r.data.Appointments)
	sortNewestFirst(apts, func(a model.Appointment) int64 { return a.AppointmentDate.UnixNano() })
	return apts, nil
}

// Phone verifications

func (r *jsonRepo) AddOTP(_ context.Context, v *model.PhoneVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop stale unverified codes for the same phone first.
	kept := r.data.OTPs[:0]
	for _, o := range r.data.OTPs {
		if o.Phone == v.Phone && !o.IsVerified {
			continue
		}
		kept = append(kept, o)
	}
	r.data.OTPs = kept

	v.ID = nextID(r.data.OTPs, func(o model.PhoneVerification) int { return o.ID })
	r.data.OTPs = append(r.data.OTPs, *v)
	r.flush()
	return nil
}

func (r *jsonRepo) FindOTP(_ context.Context, phone, otp string) (*model.PhoneVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.data.OTPs {
		if o.Phone == phone && o.OTP == otp && !o.IsVerified {
			o := o
			return &o, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonRepo) MarkOTPVerified(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, o := range r.data.OTPs {
		if o.ID == id {
			r.data.OTPs[i].IsVerified = true
			r.flush()
			return nil
		}
	}

	return ErrNotFound
}

func sortNewestFirst[T any](items []T, ts func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return ts(items[i]) > ts(items[j])
	})
}
