package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/paradetect/paradetect/internal/config"
	"github.com/paradetect/paradetect/internal/model"
	"github.com/paradetect/paradetect/internal/repository"
	"github.com/paradetect/paradetect/internal/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const otpLifetime = 5 * time.Minute

var (
	// ErrEmailTaken is returned when registering an email that
	// already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when login email/password
	// verification fails.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrInvalidOTP is returned for unknown or expired codes.
	ErrInvalidOTP = errors.New("invalid or expired OTP")
)

var Module = fx.Options(
	fx.Provide(
		NewService,
	),
	fx.Invoke(seedDefaultAdmin),
)

// Service owns credential checks and token issuance over the
// repository.
type Service struct {
	repo   repository.Repository
	tokens *token.Service
	log    *zap.Logger
}

type Params struct {
	fx.In

	Logger *zap.Logger
	Repo   repository.Repository
	Tokens *token.Service
}

func NewService(p Params) (*Service, error) {
	return &Service{
		log:    p.Logger,
		repo:   p.Repo,
		tokens: p.Tokens,
	}, nil
}

// Register creates a user and returns it with a fresh access token.
// Unknown roles are coerced to patient rather than rejected.
func (s *Service) Register(ctx context.Context, email, password, fullName, role, phone string) (*model.User, string, error) {
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	}

	if !model.ValidRole(role) {
		role = model.RolePatient
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		Email:          email,
		HashedPassword: string(hash),
		FullName:       fullName,
		Role:           role,
		Phone:          phone,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.AddUser(ctx, user); err != nil {
		return nil, "", err
	}

	accessToken, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("new user registered",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return user, accessToken, nil
}

// Login verifies credentials and returns the user with a fresh access
// token.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.Info("failed login", zap.String("email", email))
		return nil, "", ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		s.log.Info("failed login", zap.String("email", email))
		return nil, "", ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user logged in", zap.String("email", user.Email))

	return user, accessToken, nil
}

// UserFromToken resolves a bearer token to the user it was issued for.
func (s *Service) UserFromToken(ctx context.Context, tokenStr string) (*model.User, error) {
	email, err := s.tokens.Subject(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, token.ErrInvalidToken
	}

	return user, nil
}

// SendOTP issues a fresh 6 digit code for the phone, replacing any
// unverified one. The code is returned so the demo response can echo
// it; a real deployment would hand it to an SMS gateway instead.
func (s *Service) SendOTP(ctx context.Context, phone string) (*model.PhoneVerification, error) {
	code, err := generateOTP(6)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &model.PhoneVerification{
		Phone:     phone,
		OTP:       code,
		ExpiresAt: now.Add(otpLifetime),
		CreatedAt: now,
	}

	if err := s.repo.AddOTP(ctx, v); err != nil {
		return nil, err
	}

	s.log.Info("OTP generated", zap.String("phone", phone))

	return v, nil
}

// VerifyOTP marks the phone verified when the code matches and hasn't
// expired.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) error {
	v, err := s.repo.FindOTP(ctx, phone, code)
	if err != nil {
		return ErrInvalidOTP
	}

	if time.Now().UTC().After(v.ExpiresAt) {
		return ErrInvalidOTP
	}

	if err := s.repo.MarkOTPVerified(ctx, v.ID); err != nil {
		return err
	}

	s.log.Info("phone verified", zap.String("phone", phone))

	return nil
}

func generateOTP(length int) (string, error) {
	const digits = "0123456789"

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating OTP: %w", err)
	}

	for i := range buf {
		buf[i] = digits[int(buf[i])%len(digits)]
	}

	return string(buf), nil
}

type seedParams struct {
	fx.In

	Logger *zap.Logger
	Config *config.Config
	Repo   repository.Repository
}

// seedDefaultAdmin creates the configured admin account on first run.
func seedDefaultAdmin(p seedParams) error {
	ctx := context.Background()

	if _, err := p.Repo.GetUserByEmail(ctx, p.Config.Admin.Email); err == nil {
		p.Logger.Info("admin user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Config.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &model.User{
		Email:          p.Config.Admin.Email,
		HashedPassword: string(hash),
		FullName:       p.Config.Admin.FullName,
		Role:           model.RoleAdmin,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := p.Repo.AddUser(ctx, admin); err != nil {
		return err
	}

	p.Logger.Info("default admin created", zap.String("email", admin.Email))
	return nil
}
