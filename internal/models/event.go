package models

import "time"

// Event represents a volunteer event.
type Event struct {
	ID              string    `db:"id" json:"id"`
	OrganizerID     string    `db:"organizer_id" json:"organizer_id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Date            string    `db:"date" json:"date"`
	Time            string    `db:"time" json:"time"`
	Location        string    `db:"location" json:"location"`
	MaxParticipants int       `db:"max_participants" json:"max_participants"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CreateEventRequest is the payload for publishing a volunteer event.
type CreateEventRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=150"`
	Description     string `json:"description" validate:"max=2000"`
	Date            string `json:"date" validate:"required"`
	Time            string `json:"time" validate:"required"`
	Location        string `json:"location" validate:"required,max=300"`
	MaxParticipants int    `json:"max_participants" validate:"gte=0"`
}

// UpdateEventRequest carries partial updates for an event.
type UpdateEventRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=150"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	Location        *string `json:"location" validate:"omitempty,max=300"`
	MaxParticipants *int    `json:"max_participants" validate:"omitempty,gte=0"`
}
