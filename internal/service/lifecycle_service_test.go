package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/jobs"
)

type requestStoreStub struct {
	byID      map[string]*models.Request
	exists    bool
	existsErr error
	createErr error
	updateErr error
	deleteErr error

	created   []*models.Request
	updated   map[string]models.RequestStatus
	received  []models.RequestDetail
	sent      []models.RequestDetail
	bySubject []models.RequestDetail
}

func (s *requestStoreStub) Create(ctx context.Context, req *models.Request) error {
	if s.createErr != nil {
		return s.createErr
	}
	req.ID = "req-1"
	s.created = append(s.created, req)
	return nil
}

func (s *requestStoreStub) FindByID(ctx context.Context, id string) (*models.Request, error) {
	if req, ok := s.byID[id]; ok {
		return req, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestStoreStub) ExistsForApplicant(ctx context.Context, subjectID, applicantID string) (bool, error) {
	return s.exists, s.existsErr
}

func (s *requestStoreStub) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.updated == nil {
		s.updated = make(map[string]models.RequestStatus)
	}
	s.updated[id] = status
	return nil
}

func (s *requestStoreStub) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *requestStoreStub) ListReceived(ctx context.Context, ownerID string) ([]models.RequestDetail, error) {
	return s.received, nil
}

func (s *requestStoreStub) ListSent(ctx context.Context, applicantID string) ([]models.RequestDetail, error) {
	return s.sent, nil
}

func (s *requestStoreStub) ListBySubject(ctx context.Context, subjectID string) ([]models.RequestDetail, error) {
	return s.bySubject, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type bindingFixture struct {
	owners      map[string]string
	acceptCalls []string
	acceptErr   error
}

func (f *bindingFixture) binding(kind models.RequestKind, terminal ...models.RequestStatus) SubjectBinding {
	return SubjectBinding{
		Kind: kind,
		LoadSubjectOwner: func(ctx context.Context, subjectID string) (string, error) {
			owner, ok := f.owners[subjectID]
			if !ok {
				return "", sql.ErrNoRows
			}
			return owner, nil
		},
		OnAccept: func(ctx context.Context, subjectID string) error {
			f.acceptCalls = append(f.acceptCalls, subjectID)
			return f.acceptErr
		},
		TerminalStatuses: terminal,
	}
}

func newAdoptionFixture() (*requestStoreStub, *queueStub, *bindingFixture, *LifecycleService) {
	store := &requestStoreStub{byID: map[string]*models.Request{}}
	queue := &queueStub{}
	fx := &bindingFixture{owners: map[string]string{"pet-1": "owner-1"}}
	svc := NewLifecycleService(store, fx.binding(models.KindAdoption, models.RequestStatusAccepted, models.RequestStatusNotAccepted), queue, nil, zap.NewNop())
	return store, queue, fx, svc
}

func TestLifecycleCreate(t *testing.T) {
	store, _, _, svc := newAdoptionFixture()

	req, err := svc.Create(context.Background(), "user-2", models.CreateRequestPayload{SubjectID: "pet-1", Message: "please"})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "owner-1", req.OwnerID)
	assert.Equal(t, "user-2", req.ApplicantID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
}

func TestLifecycleCreateSubjectMissing(t *testing.T) {
	_, _, _, svc := newAdoptionFixture()

	_, err := svc.Create(context.Background(), "user-2", models.CreateRequestPayload{SubjectID: "pet-ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLifecycleCreateOwnSubject(t *testing.T) {
	_, _, _, svc := newAdoptionFixture()

	_, err := svc.Create(context.Background(), "owner-1", models.CreateRequestPayload{SubjectID: "pet-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLifecycleCreateDuplicate(t *testing.T) {
	store, _, _, svc := newAdoptionFixture()
	store.exists = true

	_, err := svc.Create(context.Background(), "user-2", models.CreateRequestPayload{SubjectID: "pet-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestLifecycleTransitionInvalidStatus(t *testing.T) {
	_, _, _, svc := newAdoptionFixture()

	// declined belongs to event applications, not adoptions
	_, err := svc.Transition(context.Background(), "req-1", "owner-1", models.RequestStatusDeclined)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLifecycleTransitionNotOwner(t *testing.T) {
	store, _, _, svc := newAdoptionFixture()
	store.byID["req-1"] = &models.Request{ID: "req-1", SubjectID: "pet-1", OwnerID: "owner-1", ApplicantID: "user-2", Status: models.RequestStatusPending}

	_, err := svc.Transition(context.Background(), "req-1", "user-2", models.RequestStatusAccepted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLifecycleTransitionAlreadySettled(t *testing.T) {
	store, _, fx, svc := newAdoptionFixture()
	store.byID["req-1"] = &models.Request{ID: "req-1", SubjectID: "pet-1", OwnerID: "owner-1", Status: models.RequestStatusNotAccepted}

	_, err := svc.Transition(context.Background(), "req-1", "owner-1", models.RequestStatusAccepted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fx.acceptCalls)
}

func TestLifecycleTransitionAcceptRunsSideEffect(t *testing.T) {
	store, queue, fx, svc := newAdoptionFixture()
	store.byID["req-1"] = &models.Request{ID: "req-1", SubjectID: "pet-1", OwnerID: "owner-1", Status: models.RequestStatusPending}

	req, err := svc.Transition(context.Background(), "req-1", "owner-1", models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, req.Status)
	assert.Equal(t, []string{"pet-1"}, fx.acceptCalls)
	assert.Empty(t, queue.jobs)
}

func TestLifecycleTransitionAcceptSideEffectFailureEnqueuesRepair(t *testing.T) {
	store, queue, fx, svc := newAdoptionFixture()
	store.byID["req-1"] = &models.Request{ID: "req-1", SubjectID: "pet-1", OwnerID: "owner-1", Status: models.RequestStatusPending}
	fx.acceptErr = fmt.Errorf("pets table unavailable")

	req, err := svc.Transition(context.Background(), "req-1", "owner-1", models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, req.Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "adoption_accept_repair", queue.jobs[0].Type)
	payload, ok := queue.jobs[0].Payload.(RepairPayload)
	require.True(t, ok)
	assert.Equal(t, "req-1", payload.RequestID)
	assert.Equal(t, "pet-1", payload.SubjectID)
}

func TestLifecycleTransitionAcceptRepairEnqueueFailure(t *testing.T) {
	store, queue, fx, svc := newAdoptionFixture()
	store.byID["req-1"] = &models.Request{ID: "req-1", SubjectID: "pet-1", OwnerID: "owner-1", Status: models.RequestStatusPending}
	fx.acceptErr = fmt.Errorf("pets table unavailable")
	queue.err = fmt.Errorf("queue stopped")

	_, err := svc.Transition(context.Background(), "req-1", "owner-1", models.RequestStatusAccepted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "req-1")
}

func TestLifecycleTransitionDeclineSkipsSideEffect(t *testing.T) {
	store := &requestStoreStub{byID: map[string]*models.Request{
		"req-1": {ID: "req-1", SubjectID: "event-1", OwnerID: "organizer-1", Status: models.RequestStatusPending},
	}}
	fx := &bindingFixture{owners: map[string]string{"event-1": "organizer-1"}}
	binding := fx.binding(models.KindEventApplication, models.RequestStatusAccepted, models.RequestStatusDeclined)
	binding.OnAccept = nil
	svc := NewLifecycleService(store, binding, nil, nil, zap.NewNop())

	req, err := svc.Transition(context.Background(), "req-1", "organizer-1", models.RequestStatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusDeclined, req.Status)
	assert.Equal(t, models.RequestStatusDeclined, store.updated["req-1"])
}

func TestLifecycleDeleteNotOwner(t *testing.T) {
	store, _, _, svc := newAdoptionFixture()
	store.byID["req-1"] = &models.Request{ID: "req-1", SubjectID: "pet-1", OwnerID: "owner-1", Status: models.RequestStatusPending}

	err := svc.Delete(context.Background(), "req-1", "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLifecycleListBySubjectOwnerOnly(t *testing.T) {
	store, _, _, svc := newAdoptionFixture()
	store.bySubject = []models.RequestDetail{{Request: models.Request{ID: "req-1"}}}

	items, err := svc.ListBySubject(context.Background(), "pet-1", "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.ListBySubject(context.Background(), "pet-1", "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLifecycleRepairHandlerReplaysAccept(t *testing.T) {
	_, _, fx, svc := newAdoptionFixture()

	handler := svc.RepairHandler()
	err := handler(context.Background(), jobs.Job{ID: "req-1", Type: "adoption_accept_repair", Payload: RepairPayload{RequestID: "req-1", SubjectID: "pet-1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pet-1"}, fx.acceptCalls)
}
