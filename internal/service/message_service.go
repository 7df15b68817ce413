package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

const (
	summariesCacheTTL       = 30 * time.Second
	summariesCacheKeyPrefix = "conversations:summary:"
)

type messageStore interface {
	Insert(ctx context.Context, msg *models.Message) error
	FindDetailByID(ctx context.Context, id int64) (*models.MessageDetail, error)
	ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error)
	Summaries(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
	DeleteByReport(ctx context.Context, reportID string) (int64, error)
}

type messageUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type messageReportReader interface {
	FindByID(ctx context.Context, id string) (*models.LostFoundReport, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// MessageService owns conversation addressing and the message store.
type MessageService struct {
	repo      messageStore
	users     messageUserReader
	reports   messageReportReader
	cache     summaryCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService builds a MessageService with sane defaults. The cache is
// optional.
func NewMessageService(repo messageStore, users messageUserReader, reports messageReportReader, cache summaryCache, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, users: users, reports: reports, cache: cache, validator: validate, logger: logger}
}

// Send appends a message to the conversation derived from the report and the
// two participants, then returns the enriched message.
func (s *MessageService) Send(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.MessageDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if senderID == req.ReceiverID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}

	if _, err := s.reports.FindByID(ctx, req.PetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch report")
	}
	if _, err := s.users.FindByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receiver not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch receiver")
	}

	conversationID, err := ConversationID(req.PetID, senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		ReportID:       req.PetID,
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Message,
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}

	s.invalidateSummaries(ctx, senderID, req.ReceiverID)

	detail, err := s.repo.FindDetailByID(ctx, msg.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stored message")
	}
	return detail, nil
}

// Conversations returns the caller's inbox summaries, newest conversation
// first.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	cacheKey := summariesCacheKeyPrefix + userID
	if s.cache != nil {
		var cached []models.ConversationSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("conversation summary cache read failed", zap.Error(err))
		}
	}

	summaries, err := s.repo.Summaries(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversations")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summaries, summariesCacheTTL); err != nil {
			s.logger.Warn("conversation summary cache write failed", zap.Error(err))
		}
	}
	return summaries, nil
}

// Conversation returns the full history of one conversation in append order.
// Only participants may read it.
func (s *MessageService) Conversation(ctx context.Context, conversationID, callerID string) ([]models.MessageDetail, error) {
	if _, _, _, err := ParseConversationID(conversationID); err != nil {
		return nil, err
	}
	if !IsParticipant(conversationID, callerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant of this conversation")
	}

	messages, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// MarkRead flips every unread message addressed to the caller in the
// conversation. Repeat calls are no-ops.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, callerID string) (int64, error) {
	if _, _, _, err := ParseConversationID(conversationID); err != nil {
		return 0, err
	}
	if !IsParticipant(conversationID, callerID) {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "not a participant of this conversation")
	}

	updated, err := s.repo.MarkConversationRead(ctx, conversationID, callerID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark conversation read")
	}
	if updated > 0 {
		s.invalidateSummaries(ctx, callerID)
	}
	return updated, nil
}

// DeleteByReport removes every message attached to a report. Used by the
// lost/found cascade.
func (s *MessageService) DeleteByReport(ctx context.Context, reportID string) (int64, error) {
	deleted, err := s.repo.DeleteByReport(ctx, reportID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report messages")
	}
	if deleted > 0 && s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, summariesCacheKeyPrefix+"*"); err != nil {
			s.logger.Warn("conversation summary cache invalidation failed", zap.Error(err))
		}
	}
	return deleted, nil
}

func (s *MessageService) invalidateSummaries(ctx context.Context, userIDs ...string) {
	if s.cache == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("%s%s", summariesCacheKeyPrefix, id)); err != nil {
			s.logger.Warn("conversation summary cache invalidation failed", zap.String("user_id", id), zap.Error(err))
		}
	}
}
