package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

type messageStoreStub struct {
	inserted       []*models.Message
	insertErr      error
	detail         *models.MessageDetail
	conversation   []models.MessageDetail
	summaries      []models.ConversationSummary
	summariesCalls int
	markUpdated    int64
	deleted        int64
}

func (s *messageStoreStub) Insert(ctx context.Context, msg *models.Message) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	msg.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, msg)
	return nil
}

func (s *messageStoreStub) FindDetailByID(ctx context.Context, id int64) (*models.MessageDetail, error) {
	if s.detail == nil {
		return nil, sql.ErrNoRows
	}
	return s.detail, nil
}

func (s *messageStoreStub) ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error) {
	return s.conversation, nil
}

func (s *messageStoreStub) Summaries(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	s.summariesCalls++
	return s.summaries, nil
}

func (s *messageStoreStub) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	return s.markUpdated, nil
}

func (s *messageStoreStub) DeleteByReport(ctx context.Context, reportID string) (int64, error) {
	return s.deleted, nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type reportReaderStub struct {
	reports map[string]*models.LostFoundReport
}

func (s reportReaderStub) FindByID(ctx context.Context, id string) (*models.LostFoundReport, error) {
	if report, ok := s.reports[id]; ok {
		return report, nil
	}
	return nil, sql.ErrNoRows
}

type summaryCacheStub struct {
	cached   []models.ConversationSummary
	hit      bool
	setKeys  []string
	setTTLs  []time.Duration
	patterns []string
}

func (s *summaryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.hit {
		return appErrors.ErrCacheMiss
	}
	out, ok := dest.(*[]models.ConversationSummary)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*out = s.cached
	return nil
}

func (s *summaryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	s.setTTLs = append(s.setTTLs, ttl)
	return nil
}

func (s *summaryCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newMessageFixture() (*messageStoreStub, *summaryCacheStub, *MessageService) {
	store := &messageStoreStub{
		detail: &models.MessageDetail{Message: models.Message{ID: 1}},
	}
	cache := &summaryCacheStub{}
	users := userReaderStub{users: map[string]*models.User{
		"user-a": {ID: "user-a"},
		"user-b": {ID: "user-b"},
	}}
	reports := reportReaderStub{reports: map[string]*models.LostFoundReport{
		"report-1": {ID: "report-1"},
	}}
	svc := NewMessageService(store, users, reports, cache, nil, zap.NewNop())
	return store, cache, svc
}

func TestMessageSend(t *testing.T) {
	store, cache, svc := newMessageFixture()

	detail, err := svc.Send(context.Background(), "user-b", models.SendMessageRequest{
		PetID:      "report-1",
		ReceiverID: "user-a",
		Message:    "is she still missing?",
	})
	require.NoError(t, err)
	require.NotNil(t, detail)

	require.Len(t, store.inserted, 1)
	msg := store.inserted[0]
	assert.Equal(t, "report-1_user-a_user-b", msg.ConversationID)
	assert.Equal(t, "user-b", msg.SenderID)
	assert.Equal(t, "user-a", msg.ReceiverID)

	// both participants lose their summary cache
	assert.Contains(t, cache.patterns, summariesCacheKeyPrefix+"user-a")
	assert.Contains(t, cache.patterns, summariesCacheKeyPrefix+"user-b")
}

func TestMessageSendToSelf(t *testing.T) {
	_, _, svc := newMessageFixture()

	_, err := svc.Send(context.Background(), "user-a", models.SendMessageRequest{
		PetID:      "report-1",
		ReceiverID: "user-a",
		Message:    "hi",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMessageSendReportMissing(t *testing.T) {
	_, _, svc := newMessageFixture()

	_, err := svc.Send(context.Background(), "user-b", models.SendMessageRequest{
		PetID:      "report-ghost",
		ReceiverID: "user-a",
		Message:    "hi",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageSendReceiverMissing(t *testing.T) {
	_, _, svc := newMessageFixture()

	_, err := svc.Send(context.Background(), "user-b", models.SendMessageRequest{
		PetID:      "report-1",
		ReceiverID: "user-ghost",
		Message:    "hi",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageConversationsCacheMiss(t *testing.T) {
	store, cache, svc := newMessageFixture()
	store.summaries = []models.ConversationSummary{{ConversationID: "report-1_user-a_user-b"}}

	summaries, err := svc.Conversations(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, store.summariesCalls)

	require.Len(t, cache.setKeys, 1)
	assert.Equal(t, summariesCacheKeyPrefix+"user-a", cache.setKeys[0])
	assert.Equal(t, summariesCacheTTL, cache.setTTLs[0])
}

func TestMessageConversationsCacheHit(t *testing.T) {
	store, cache, svc := newMessageFixture()
	cache.hit = true
	cache.cached = []models.ConversationSummary{{ConversationID: "report-1_user-a_user-b"}}

	summaries, err := svc.Conversations(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, store.summariesCalls)
	assert.Empty(t, cache.setKeys)
}

func TestMessageConversationParticipantOnly(t *testing.T) {
	_, _, svc := newMessageFixture()

	_, err := svc.Conversation(context.Background(), "report-1_user-a_user-b", "user-c")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Conversation(context.Background(), "garbage", "user-a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidIdentity.Code, appErrors.FromError(err).Code)
}

func TestMessageMarkRead(t *testing.T) {
	store, cache, svc := newMessageFixture()
	store.markUpdated = 3

	updated, err := svc.MarkRead(context.Background(), "report-1_user-a_user-b", "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
	assert.Contains(t, cache.patterns, summariesCacheKeyPrefix+"user-a")
}

func TestMessageMarkReadNoop(t *testing.T) {
	store, cache, svc := newMessageFixture()
	store.markUpdated = 0

	updated, err := svc.MarkRead(context.Background(), "report-1_user-a_user-b", "user-a")
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, cache.patterns)
}

func TestMessageDeleteByReportInvalidatesAllSummaries(t *testing.T) {
	store, cache, svc := newMessageFixture()
	store.deleted = 5

	deleted, err := svc.DeleteByReport(context.Background(), "report-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.Contains(t, cache.patterns, summariesCacheKeyPrefix+"*")
}
