package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pawnics/pawnics-api/internal/models"
)

const petColumns = `id, owner_id, name, breed, age, color, description, photo, health_info, behavior, status, created_at, updated_at`

// PetRepository provides database access for pet listings.
type PetRepository struct {
	db *sqlx.DB
}

// NewPetRepository creates a new instance of PetRepository.
func NewPetRepository(db *sqlx.DB) *PetRepository {
	return &PetRepository{db: db}
}

// Create inserts a new pet listing.
func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) error {
	if pet.ID == "" {
		pet.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pet.CreatedAt = now
	pet.UpdatedAt = now
	if pet.Status == "" {
		pet.Status = models.PetStatusAvailable
	}

	const query = `INSERT INTO pets (id, owner_id, name, breed, age, color, description, photo, health_info, behavior, status, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :breed, :age, :color, :description, :photo, :health_info, :behavior, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pet); err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

// FindByID returns a pet by identifier.
func (r *PetRepository) FindByID(ctx context.Context, id string) (*models.Pet, error) {
	query := fmt.Sprintf(`SELECT %s FROM pets WHERE id = $1 LIMIT 1`, petColumns)
	var pet models.Pet
	if err := r.db.GetContext(ctx, &pet, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pet by id: %w", err)
	}
	return &pet, nil
}

// List returns all pets, available listings first, newest within each group.
func (r *PetRepository) List(ctx context.Context) ([]models.Pet, error) {
	query := fmt.Sprintf(`SELECT %s FROM pets
		ORDER BY CASE WHEN status = 'available' THEN 0 ELSE 1 END, created_at DESC`, petColumns)
	pets := []models.Pet{}
	if err := r.db.SelectContext(ctx, &pets, query); err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets, nil
}

// ListByOwner returns pets listed by the given user.
func (r *PetRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error) {
	query := fmt.Sprintf(`SELECT %s FROM pets WHERE owner_id = $1 ORDER BY created_at DESC`, petColumns)
	pets := []models.Pet{}
	if err := r.db.SelectContext(ctx, &pets, query, ownerID); err != nil {
		return nil, fmt.Errorf("list pets by owner: %w", err)
	}
	return pets, nil
}

// Update persists the mutable fields of a pet listing.
func (r *PetRepository) Update(ctx context.Context, pet *models.Pet) error {
	pet.UpdatedAt = time.Now().UTC()
	const query = `UPDATE pets SET name = :name, breed = :breed, age = :age, color = :color,
		description = :description, photo = :photo, health_info = :health_info,
		behavior = :behavior, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, pet)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus flips the adoption state of a pet.
func (r *PetRepository) UpdateStatus(ctx context.Context, id string, status models.PetStatus) error {
	const query = `UPDATE pets SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update pet status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a pet listing.
func (r *PetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM pets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
