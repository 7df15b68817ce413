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

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// EventService manages volunteer events.
type EventService struct {
	repo      eventStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService builds an EventService with sane defaults.
func NewEventService(repo eventStore, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: validate, logger: logger}
}

// Create publishes a new volunteer event organized by the caller.
func (s *EventService) Create(ctx context.Context, organizerID string, req models.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event := &models.Event{
		OrganizerID:     organizerID,
		Name:            req.Name,
		Description:     req.Description,
		Date:            req.Date,
		Time:            req.Time,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// List returns every event, newest first.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch event")
	}
	return event, nil
}

// ListMine returns the caller's events.
func (s *EventService) ListMine(ctx context.Context, organizerID string) ([]models.Event, error) {
	events, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Update applies partial changes to an event organized by the caller.
func (s *EventService) Update(ctx context.Context, id, callerID string, req models.UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the organizer may update this event")
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Time != nil {
		event.Time = *req.Time
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.MaxParticipants != nil {
		event.MaxParticipants = *req.MaxParticipants
	}

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete removes an event organized by the caller.
func (s *EventService) Delete(ctx context.Context, id, callerID string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if event.OrganizerID != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the organizer may delete this event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}
