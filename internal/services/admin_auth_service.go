package services

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/pkg/jwt"
)

// AdminAuthService authenticates the operator account. A single operator
// credential pair from configuration is enough for the delay-injection and
// simulation-control surface; there is no operator user table.
type AdminAuthService struct {
	config *config.AdminConfig
	jwt    *jwt.Service
	logger *logrus.Logger
}

// NewAdminAuthService creates a new AdminAuthService
func NewAdminAuthService(cfg *config.AdminConfig, jwtService *jwt.Service, logger *logrus.Logger) *AdminAuthService {
	return &AdminAuthService{config: cfg, jwt: jwtService, logger: logger}
}

// Login verifies operator credentials and issues a token. The same generic
// error covers unknown username and wrong password.
func (s *AdminAuthService) Login(username, password string) (string, error) {
	if username != s.config.Username || s.config.PasswordHash == "" {
		s.logger.WithField("username", username).Warn("Operator login rejected")
		return "", models.NewBookingError(models.ReasonForbidden, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("username", username).Warn("Operator login rejected")
		return "", models.NewBookingError(models.ReasonForbidden, "invalid credentials")
	}

	token, err := s.jwt.Generate(username, []string{"operator"})
	if err != nil {
		return "", err
	}
	s.logger.WithField("username", username).Info("Operator logged in")
	return token, nil
}
