package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

type petStoreStub struct {
	byID     map[string]*models.Pet
	listed   []models.Pet
	statuses map[string]models.PetStatus
	updated  []*models.Pet
	deleted  []string
}

func (s *petStoreStub) Create(ctx context.Context, pet *models.Pet) error {
	pet.ID = "pet-1"
	return nil
}

func (s *petStoreStub) FindByID(ctx context.Context, id string) (*models.Pet, error) {
	if pet, ok := s.byID[id]; ok {
		clone := *pet
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *petStoreStub) List(ctx context.Context) ([]models.Pet, error) {
	return s.listed, nil
}

func (s *petStoreStub) ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error) {
	return s.listed, nil
}

func (s *petStoreStub) Update(ctx context.Context, pet *models.Pet) error {
	s.updated = append(s.updated, pet)
	return nil
}

func (s *petStoreStub) UpdateStatus(ctx context.Context, id string, status models.PetStatus) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	if s.statuses == nil {
		s.statuses = make(map[string]models.PetStatus)
	}
	s.statuses[id] = status
	return nil
}

func (s *petStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newPetFixture() (*petStoreStub, *PetService) {
	store := &petStoreStub{byID: map[string]*models.Pet{
		"pet-1": {ID: "pet-1", OwnerID: "owner-1", Name: "Rex", Status: models.PetStatusAvailable},
	}}
	return store, NewPetService(store, nil, zap.NewNop())
}

func TestPetCreateDefaultsToAvailable(t *testing.T) {
	_, svc := newPetFixture()

	pet, err := svc.Create(context.Background(), "owner-1", models.CreatePetRequest{
		Name:  "Rex",
		Breed: "labrador",
	}, "uploads/pets/rex.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusAvailable, pet.Status)
	assert.Equal(t, "owner-1", pet.OwnerID)
	assert.Equal(t, "uploads/pets/rex.jpg", pet.Photo)
}

func TestPetUpdateOwnerOnly(t *testing.T) {
	_, svc := newPetFixture()

	name := "Buddy"
	_, err := svc.Update(context.Background(), "pet-1", "intruder", models.UpdatePetRequest{Name: &name}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPetUpdateMergesFields(t *testing.T) {
	store, svc := newPetFixture()

	name := "Buddy"
	age := 4
	pet, err := svc.Update(context.Background(), "pet-1", "owner-1", models.UpdatePetRequest{Name: &name, Age: &age}, "")
	require.NoError(t, err)
	assert.Equal(t, "Buddy", pet.Name)
	assert.Equal(t, 4, pet.Age)
	require.Len(t, store.updated, 1)
}

func TestPetMarkAdopted(t *testing.T) {
	store, svc := newPetFixture()

	require.NoError(t, svc.MarkAdopted(context.Background(), "pet-1"))
	assert.Equal(t, models.PetStatusAdopted, store.statuses["pet-1"])

	err := svc.MarkAdopted(context.Background(), "pet-ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPetDeleteOwnerOnly(t *testing.T) {
	store, svc := newPetFixture()

	err := svc.Delete(context.Background(), "pet-1", "intruder")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)

	require.NoError(t, svc.Delete(context.Background(), "pet-1", "owner-1"))
	assert.Equal(t, []string{"pet-1"}, store.deleted)
}

func TestPetGetMissing(t *testing.T) {
	_, svc := newPetFixture()

	_, err := svc.Get(context.Background(), "pet-ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
