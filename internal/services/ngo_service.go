package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"helphive/internal/models"
	"helphive/internal/repositories"
)

var ErrNGOProfileExists = errors.New("caller already owns an ngo profile")

type NGOService interface {
	Create(ctx context.Context, ownerUserID, name, description, website string) (*models.NGO, error)
	GetByID(ctx context.Context, id string) (*models.NGO, error)
	GetByOwner(ctx context.Context, ownerUserID string) (*models.NGO, error)
	List(ctx context.Context) ([]models.NGO, error)
	// SetVerification is the admin status flip consumed by task creation as a
	// precondition.
	SetVerification(ctx context.Context, id string, status models.NGOVerification) (*models.NGO, error)
}

type ngoService struct {
	repo         repositories.NGORepository
	users        repositories.UserRepository
	emailService EmailService
}

func NewNGOService(repo repositories.NGORepository, users repositories.UserRepository, emailService EmailService) NGOService {
	return &ngoService{repo: repo, users: users, emailService: emailService}
}

func (s *ngoService) Create(ctx context.Context, ownerUserID, name, description, website string) (*models.NGO, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Msg: "required"}
	}
	if _, err := s.repo.FindByOwner(ctx, ownerUserID); err == nil {
		return nil, ErrNGOProfileExists
	} else if !errors.Is(err, repositories.ErrNGONotFound) {
		return nil, err
	}

	ngo := &models.NGO{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		Name:         strings.TrimSpace(name),
		Description:  description,
		Website:      website,
		Verification: models.NGOVerificationPending,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Store(ctx, ngo); err != nil {
		return nil, err
	}
	return ngo, nil
}

func (s *ngoService) GetByID(ctx context.Context, id string) (*models.NGO, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ngoService) GetByOwner(ctx context.Context, ownerUserID string) (*models.NGO, error) {
	return s.repo.FindByOwner(ctx, ownerUserID)
}

func (s *ngoService) List(ctx context.Context) ([]models.NGO, error) {
	return s.repo.FindAll(ctx)
}

func (s *ngoService) SetVerification(ctx context.Context, id string, status models.NGOVerification) (*models.NGO, error) {
	switch status {
	case models.NGOVerificationApproved, models.NGOVerificationRejected:
	default:
		return nil, &ValidationError{Field: "status", Msg: "must be approved or rejected"}
	}
	if err := s.repo.UpdateVerification(ctx, id, status); err != nil {
		return nil, err
	}
	ngo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.emailService != nil && s.users != nil {
		if owner, uerr := s.users.GetByID(ctx, ngo.OwnerUserID); uerr == nil {
			if merr := s.emailService.SendNGOVerificationEmail(owner.Email, ngo.Name, string(status)); merr != nil {
				log.Printf("[ngo][verification] warning: failed to send outcome email to %s: %v", owner.Email, merr)
			}
		}
	}
	return ngo, nil
}
