package models

import "time"

// PetStatus represents the adoption lifecycle state of a pet.
type PetStatus string

const (
	PetStatusAvailable PetStatus = "available"
	PetStatusAdopted   PetStatus = "adopted"
)

// Pet represents a pet listed for adoption.
type Pet struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Breed       string    `db:"breed" json:"breed"`
	Age         int       `db:"age" json:"age"`
	Color       string    `db:"color" json:"color"`
	Description string    `db:"description" json:"description"`
	Photo       string    `db:"photo" json:"photo"`
	HealthInfo  string    `db:"health_info" json:"health_info"`
	Behavior    string    `db:"behavior" json:"behavior"`
	Status      PetStatus `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreatePetRequest is the payload for listing a new pet. The photo arrives
// as a multipart file alongside this form.
type CreatePetRequest struct {
	Name        string `form:"name" json:"name" validate:"required,min=1,max=100"`
	Breed       string `form:"breed" json:"breed" validate:"required,max=100"`
	Age         int    `form:"age" json:"age" validate:"gte=0,lte=100"`
	Color       string `form:"color" json:"color" validate:"max=50"`
	Description string `form:"description" json:"description" validate:"max=2000"`
	HealthInfo  string `form:"health_info" json:"health_info" validate:"max=2000"`
	Behavior    string `form:"behavior" json:"behavior" validate:"max=2000"`
}

// UpdatePetRequest carries partial updates for a pet listing.
type UpdatePetRequest struct {
	Name        *string `form:"name" json:"name" validate:"omitempty,min=1,max=100"`
	Breed       *string `form:"breed" json:"breed" validate:"omitempty,max=100"`
	Age         *int    `form:"age" json:"age" validate:"omitempty,gte=0,lte=100"`
	Color       *string `form:"color" json:"color" validate:"omitempty,max=50"`
	Description *string `form:"description" json:"description" validate:"omitempty,max=2000"`
	HealthInfo  *string `form:"health_info" json:"health_info" validate:"omitempty,max=2000"`
	Behavior    *string `form:"behavior" json:"behavior" validate:"omitempty,max=2000"`
}
