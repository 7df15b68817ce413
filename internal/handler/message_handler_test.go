package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/pawnics/pawnics-api/internal/middleware"
	"github.com/pawnics/pawnics-api/internal/models"
	"github.com/pawnics/pawnics-api/internal/service"
)

type messageStoreMock struct {
	inserted []*models.Message
	detail   *models.MessageDetail
	history  []models.MessageDetail
	updated  int64
}

func (m *messageStoreMock) Insert(ctx context.Context, msg *models.Message) error {
	msg.ID = 1
	m.inserted = append(m.inserted, msg)
	return nil
}

func (m *messageStoreMock) FindDetailByID(ctx context.Context, id int64) (*models.MessageDetail, error) {
	return m.detail, nil
}

func (m *messageStoreMock) ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error) {
	return m.history, nil
}

func (m *messageStoreMock) Summaries(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	return []models.ConversationSummary{}, nil
}

func (m *messageStoreMock) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	return m.updated, nil
}

func (m *messageStoreMock) DeleteByReport(ctx context.Context, reportID string) (int64, error) {
	return 0, nil
}

type userReaderMock struct{}

func (userReaderMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "user-ghost" {
		return nil, sql.ErrNoRows
	}
	return &models.User{ID: id}, nil
}

type reportReaderMock struct{}

func (reportReaderMock) FindByID(ctx context.Context, id string) (*models.LostFoundReport, error) {
	if id == "report-ghost" {
		return nil, sql.ErrNoRows
	}
	return &models.LostFoundReport{ID: id}, nil
}

func buildMessageRouter(store *messageStoreMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: uid})
		}
		c.Next()
	})

	svc := service.NewMessageService(store, userReaderMock{}, reportReaderMock{}, nil, nil, zap.NewNop())
	h := NewMessageHandler(svc)
	router.POST("/messages", h.Send)
	router.GET("/messages/conversations", h.Conversations)
	router.GET("/messages/conversation/:id", h.Conversation)
	router.PATCH("/messages/conversation/:id/read", h.MarkRead)
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestMessageRoutes(t *testing.T) {
	store := &messageStoreMock{
		detail: &models.MessageDetail{Message: models.Message{ID: 1, Content: "is she still missing?"}},
	}
	router := buildMessageRouter(store)

	t.Run("send success", func(t *testing.T) {
		body := bytes.NewBufferString(`{"petId":"report-1","receiverId":"user-a","message":"is she still missing?"}`)
		req, _ := http.NewRequest(http.MethodPost, "/messages", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "user-b")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), "is she still missing?")
		require.Len(t, store.inserted, 1)
		require.Equal(t, "report-1_user-a_user-b", store.inserted[0].ConversationID)
	})

	t.Run("send unauthenticated", func(t *testing.T) {
		body := bytes.NewBufferString(`{"petId":"report-1","receiverId":"user-a","message":"hi"}`)
		req, _ := http.NewRequest(http.MethodPost, "/messages", body)
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("send to missing report", func(t *testing.T) {
		body := bytes.NewBufferString(`{"petId":"report-ghost","receiverId":"user-a","message":"hi"}`)
		req, _ := http.NewRequest(http.MethodPost, "/messages", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "user-b")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("send invalid payload", func(t *testing.T) {
		body := bytes.NewBufferString(`{"petId":"report-1","receiverId":"user-a"}`)
		req, _ := http.NewRequest(http.MethodPost, "/messages", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "user-b")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("conversations", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/messages/conversations", nil)
		req.Header.Set("X-Test-User", "user-a")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("conversation forbidden for outsiders", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/messages/conversation/report-1_user-a_user-b", nil)
		req.Header.Set("X-Test-User", "user-c")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("mark read", func(t *testing.T) {
		store.updated = 2
		req, _ := http.NewRequest(http.MethodPatch, "/messages/conversation/report-1_user-a_user-b/read", nil)
		req.Header.Set("X-Test-User", "user-a")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"updated":2`)
	})
}
