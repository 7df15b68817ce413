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

const eventColumns = `id, organizer_id, name, description, date, time, location, max_participants, created_at, updated_at`

// EventRepository provides database access for volunteer events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, organizer_id, name, description, date, time, location, max_participants, created_at, updated_at)
		VALUES (:id, :organizer_id, :name, :description, :date, :time, :location, :max_participants, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// FindByID returns an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1 LIMIT 1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return &event, nil
}

// List returns all events, newest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events ORDER BY created_at DESC`, eventColumns)
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListByOrganizer returns events created by the given user.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`, eventColumns)
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, organizerID); err != nil {
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	return events, nil
}

// Update persists the mutable fields of an event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET name = :name, description = :description, date = :date,
		time = :time, location = :location, max_participants = :max_participants,
		updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
