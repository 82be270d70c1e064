package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"helphive/internal/authz"
	"helphive/internal/models"
	"helphive/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, name, email, plainPassword string, role authz.Role) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRefresh(ctx context.Context, token string) (*models.User, error)
	UpdateRefresh(ctx context.Context, id, token string, expiresAt time.Time) error
	CompletedTasks(ctx context.Context, id string) ([]models.CompletedTask, error)
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) Register(ctx context.Context, name, email, plainPassword string, role authz.Role) (*models.User, error) {
	if strings.TrimSpace(plainPassword) == "" {
		return nil, fmt.Errorf("password is required")
	}
	if !authz.IsValidRole(role) || role == authz.RoleAdmin {
		// admins are provisioned out of band, never self-registered
		return nil, fmt.Errorf("role must be volunteer or ngo")
	}

	hashedPassword, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hashedPassword,
		Role:         string(role),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
			// warn but do not fail registration
			log.Printf("[user][register] warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *userService) GetByRefresh(ctx context.Context, token string) (*models.User, error) {
	return s.repo.GetByRefresh(ctx, token)
}

func (s *userService) UpdateRefresh(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(ctx, id, token, expiresAt)
}

func (s *userService) CompletedTasks(ctx context.Context, id string) ([]models.CompletedTask, error) {
	return s.repo.ListCompletedTasks(ctx, id)
}
