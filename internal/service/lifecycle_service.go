package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/jobs"
)

type requestStore interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, id string) (*models.Request, error)
	ExistsForApplicant(ctx context.Context, subjectID, applicantID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	Delete(ctx context.Context, id string) error
	ListReceived(ctx context.Context, ownerID string) ([]models.RequestDetail, error)
	ListSent(ctx context.Context, applicantID string) ([]models.RequestDetail, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.RequestDetail, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SubjectBinding adapts the lifecycle engine to one subject flavour. Adoption
// requests bind to pets, event applications bind to events.
type SubjectBinding struct {
	Kind models.RequestKind

	// LoadSubjectOwner resolves the subject's owner. It returns
	// sql.ErrNoRows when the subject does not exist.
	LoadSubjectOwner func(ctx context.Context, subjectID string) (string, error)

	// OnAccept runs the side effect of an accepted request, nil when the
	// kind has none.
	OnAccept func(ctx context.Context, subjectID string) error

	// TerminalStatuses are the settled states a pending request may move to.
	TerminalStatuses []models.RequestStatus
}

// LifecycleService drives a request from creation through settlement for one
// subject kind.
type LifecycleService struct {
	repo      requestStore
	binding   SubjectBinding
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger

	terminal map[models.RequestStatus]bool
}

// NewLifecycleService builds a lifecycle service for the given binding. The
// queue is optional; without it a failed accept side effect is surfaced
// immediately instead of being retried.
func NewLifecycleService(repo requestStore, binding SubjectBinding, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *LifecycleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	terminal := make(map[models.RequestStatus]bool, len(binding.TerminalStatuses))
	for _, st := range binding.TerminalStatuses {
		terminal[st] = true
	}
	return &LifecycleService{
		repo:      repo,
		binding:   binding,
		queue:     queue,
		validator: validate,
		logger:    logger,
		terminal:  terminal,
	}
}

// Kind returns the request flavour this service drives.
func (s *LifecycleService) Kind() models.RequestKind {
	return s.binding.Kind
}

// Create files a pending request by the applicant against a subject.
func (s *LifecycleService) Create(ctx context.Context, applicantID string, payload models.CreateRequestPayload) (*models.Request, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	ownerID, err := s.binding.LoadSubjectOwner(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s subject not found", s.binding.Kind))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if ownerID == applicantID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot act on own subject")
	}

	exists, err := s.repo.ExistsForApplicant(ctx, payload.SubjectID, applicantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing request")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a request for this subject already exists")
	}

	req := &models.Request{
		SubjectID:   payload.SubjectID,
		OwnerID:     ownerID,
		ApplicantID: applicantID,
		Status:      models.RequestStatusPending,
		Message:     payload.Message,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	return req, nil
}

// Transition settles a pending request. Only the subject owner may settle,
// the target status must be terminal for the kind, and a settled request
// stays settled.
func (s *LifecycleService) Transition(ctx context.Context, requestID, callerID string, status models.RequestStatus) (*models.Request, error) {
	if !s.terminal[status] {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status %q is not a valid outcome", status))
	}

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the subject owner may settle this request")
	}
	if req.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is already settled")
	}

	if err := s.repo.UpdateStatus(ctx, requestID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}
	req.Status = status

	if status == models.RequestStatusAccepted && s.binding.OnAccept != nil {
		if err := s.binding.OnAccept(ctx, req.SubjectID); err != nil {
			s.logger.Warn("accept side effect failed, scheduling repair",
				zap.String("request_id", req.ID),
				zap.String("subject_id", req.SubjectID),
				zap.Error(err))
			if qErr := s.enqueueRepair(req); qErr != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
					fmt.Sprintf("request %s accepted but subject update failed", req.ID))
			}
		}
	}

	return req, nil
}

// Delete removes a request. Only the subject owner may delete.
func (s *LifecycleService) Delete(ctx context.Context, requestID, callerID string) error {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.OwnerID != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the subject owner may delete this request")
	}
	if err := s.repo.Delete(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	return nil
}

// ListReceived returns requests against subjects the caller owns.
func (s *LifecycleService) ListReceived(ctx context.Context, ownerID string) ([]models.RequestDetail, error) {
	items, err := s.repo.ListReceived(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list received requests")
	}
	return items, nil
}

// ListSent returns requests the caller has filed.
func (s *LifecycleService) ListSent(ctx context.Context, applicantID string) ([]models.RequestDetail, error) {
	items, err := s.repo.ListSent(ctx, applicantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sent requests")
	}
	return items, nil
}

// ListBySubject returns all requests against one subject, restricted to its
// owner.
func (s *LifecycleService) ListBySubject(ctx context.Context, subjectID, callerID string) ([]models.RequestDetail, error) {
	ownerID, err := s.binding.LoadSubjectOwner(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s subject not found", s.binding.Kind))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if ownerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the subject owner may view its requests")
	}

	items, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject requests")
	}
	return items, nil
}

// RepairPayload carries the data an accept-repair job needs.
type RepairPayload struct {
	RequestID string
	SubjectID string
}

// RepairHandler returns the jobs handler replaying failed accept side effects.
func (s *LifecycleService) RepairHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(RepairPayload)
		if !ok {
			s.logger.Error("unexpected repair payload", zap.String("job_id", job.ID))
			return nil
		}
		if s.binding.OnAccept == nil {
			return nil
		}
		return s.binding.OnAccept(ctx, payload.SubjectID)
	}
}

func (s *LifecycleService) get(ctx context.Context, requestID string) (*models.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch request")
	}
	return req, nil
}

func (s *LifecycleService) enqueueRepair(req *models.Request) error {
	if s.queue == nil {
		return fmt.Errorf("no repair queue configured")
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      req.ID,
		Type:    fmt.Sprintf("%s_accept_repair", s.binding.Kind),
		Payload: RepairPayload{RequestID: req.ID, SubjectID: req.SubjectID},
	})
}
