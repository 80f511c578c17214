package model

import "time"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor || role == RoleAdmin
}

type User struct {
	ID             int        `json:"id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"hashed_password"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	Phone          string     `json:"phone,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"license_number,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UserInfo is the wire form of a user, with the credential hash
// stripped.
type UserInfo struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) Info() UserInfo {
	return UserInfo{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		Phone:          u.Phone,
		Specialization: u.Specialization,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}

// DoctorInfo is the trimmed listing returned to patients booking an
// appointment.
type DoctorInfo struct {
	ID             int    `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization,omitempty"`
}

func (u *User) Doctor() DoctorInfo {
	return DoctorInfo{
		ID:             u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		Specialization: u.Specialization,
	}
}
