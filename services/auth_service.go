package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var ErrPasswordTooShort = errors.New("password is too short")

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.AdminUser, error)
	// EnsureAdmin creates the admin account if the email is not taken yet.
	EnsureAdmin(ctx context.Context, email, password string) (*models.AdminUser, bool, error)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	adminRepo repositories.AdminRepository
	logger    *slog.Logger
}

func NewAuthService(adminRepo repositories.AdminRepository, logger *slog.Logger) AuthService {
	return &authService{
		adminRepo: adminRepo,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.AdminUser, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	admin.PasswordHash = ""
	return admin, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) (*models.AdminUser, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, fmt.Errorf("%w: admin email is required", ErrValidationFailed)
	}

	existing, err := s.adminRepo.GetByEmail(ctx, email)
	if err == nil {
		existing.PasswordHash = ""
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrAdminNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	if len(password) < minPasswordLength {
		return nil, false, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
	}
	if err = s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailConflict) {
			return nil, false, ErrAdminEmailConflict
		}
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "Admin account created", slog.String("email", email))
	admin.PasswordHash = ""
	return admin, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
