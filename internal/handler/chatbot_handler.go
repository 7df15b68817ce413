package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawnics/pawnics-api/internal/models"
	"github.com/pawnics/pawnics-api/internal/service"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/response"
)

// ChatbotHandler wires the canned-response assistant.
type ChatbotHandler struct {
	service *service.ChatbotService
}

// NewChatbotHandler creates a new handler.
func NewChatbotHandler(svc *service.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{service: svc}
}

// Ask godoc
// @Summary Ask the assistant a question
// @Tags Chatbot
// @Accept json
// @Produce json
// @Param payload body models.ChatbotRequest true "Question"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /chatbot [post]
func (h *ChatbotHandler) Ask(c *gin.Context) {
	var req models.ChatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chatbot payload"))
		return
	}

	response.JSON(c, http.StatusOK, h.service.Reply(req), nil)
}
