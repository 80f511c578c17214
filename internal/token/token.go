package token

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/paradetect/paradetect/internal/config"
)

var signingMethod = jwt.SigningMethodHS256

var ErrInvalidToken = errors.New("access token was invalid")

type claims struct {
	jwt.RegisteredClaims
}

// Service issues and verifies the bearer tokens handed out at login
// and registration.
type Service struct {
	secret   []byte
	lifetime time.Duration
}

func NewService(conf *config.Config) *Service {
	return &Service{
		secret:   []byte(conf.Token.Secret),
		lifetime: time.Duration(conf.Token.LifetimeMinutes) * time.Minute,
	}
}

// Issue signs a token whose subject is the user's email.
func (s *Service) Issue(email string) (string, error) {
	now := time.Now()
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("couldn't sign access token: %w", err)
	}

	return signed, nil
}

// Subject verifies the token and returns the email it was issued for.
func (s *Service) Subject(tokenStr string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{signingMethod.Alg()}))

	c := new(claims)
	parsed, err := parser.ParseWithClaims(tokenStr, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})

	if err != nil || !parsed.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
