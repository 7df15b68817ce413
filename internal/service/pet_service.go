package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

type petStore interface {
	Create(ctx context.Context, pet *models.Pet) error
	FindByID(ctx context.Context, id string) (*models.Pet, error)
	List(ctx context.Context) ([]models.Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error)
	Update(ctx context.Context, pet *models.Pet) error
	UpdateStatus(ctx context.Context, id string, status models.PetStatus) error
	Delete(ctx context.Context, id string) error
}

// PetService manages pet listings.
type PetService struct {
	repo      petStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPetService builds a PetService with sane defaults.
func NewPetService(repo petStore, validate *validator.Validate, logger *zap.Logger) *PetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PetService{repo: repo, validator: validate, logger: logger}
}

// Create lists a new pet owned by the caller.
func (s *PetService) Create(ctx context.Context, ownerID string, req models.CreatePetRequest, photoPath string) (*models.Pet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pet payload")
	}

	pet := &models.Pet{
		OwnerID:     ownerID,
		Name:        req.Name,
		Breed:       req.Breed,
		Age:         req.Age,
		Color:       req.Color,
		Description: req.Description,
		Photo:       photoPath,
		HealthInfo:  req.HealthInfo,
		Behavior:    req.Behavior,
		Status:      models.PetStatusAvailable,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pet")
	}
	return pet, nil
}

// List returns every pet, available listings first.
func (s *PetService) List(ctx context.Context) ([]models.Pet, error) {
	pets, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pets")
	}
	return pets, nil
}

// Get returns one pet.
func (s *PetService) Get(ctx context.Context, id string) (*models.Pet, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pet")
	}
	return pet, nil
}

// ListMine returns the caller's pets.
func (s *PetService) ListMine(ctx context.Context, ownerID string) ([]models.Pet, error) {
	pets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pets")
	}
	return pets, nil
}

// Update applies partial changes to a pet owned by the caller.
func (s *PetService) Update(ctx context.Context, id, callerID string, req models.UpdatePetRequest, photoPath string) (*models.Pet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pet payload")
	}

	pet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner may update this pet")
	}

	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Breed != nil {
		pet.Breed = *req.Breed
	}
	if req.Age != nil {
		pet.Age = *req.Age
	}
	if req.Color != nil {
		pet.Color = *req.Color
	}
	if req.Description != nil {
		pet.Description = *req.Description
	}
	if req.HealthInfo != nil {
		pet.HealthInfo = *req.HealthInfo
	}
	if req.Behavior != nil {
		pet.Behavior = *req.Behavior
	}
	if photoPath != "" {
		pet.Photo = photoPath
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pet")
	}
	return pet, nil
}

// MarkAdopted flips a pet's status to adopted. Consumed by the adoption
// lifecycle on accept.
func (s *PetService) MarkAdopted(ctx context.Context, id string) error {
	if err := s.repo.UpdateStatus(ctx, id, models.PetStatusAdopted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pet not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pet status")
	}
	return nil
}

// Delete removes a pet owned by the caller.
func (s *PetService) Delete(ctx context.Context, id, callerID string) error {
	pet, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if pet.OwnerID != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner may delete this pet")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pet not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pet")
	}
	return nil
}
