package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawnics/pawnics-api/internal/models"
	"github.com/pawnics/pawnics-api/internal/service"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/response"
)

// RequestHandler wires HTTP endpoints to one lifecycle service instance. The
// same handler serves adoption requests and event applications; routing
// decides which instance answers.
type RequestHandler struct {
	service *service.LifecycleService
}

// NewRequestHandler creates a new handler.
func NewRequestHandler(svc *service.LifecycleService) *RequestHandler {
	return &RequestHandler{service: svc}
}

// Create godoc
// @Summary File a request against a subject
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateRequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /adoption-requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	req, err := h.service.Create(c.Request.Context(), claims.UserID, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// Transition godoc
// @Summary Settle a pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request id"
// @Param payload body models.TransitionRequestPayload true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /adoption-requests/{id} [patch]
func (h *RequestHandler) Transition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.TransitionRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	req, err := h.service.Transition(c.Request.Context(), c.Param("id"), claims.UserID, payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Delete godoc
// @Summary Delete a request
// @Tags Requests
// @Security BearerAuth
// @Param id path string true "Request id"
// @Success 204 "No Content"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /adoption-requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListReceived godoc
// @Summary List requests received for the caller's subjects
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /adoption-requests/received [get]
func (h *RequestHandler) ListReceived(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListReceived(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListSent godoc
// @Summary List requests the caller has filed
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /adoption-requests/sent [get]
func (h *RequestHandler) ListSent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListSent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListBySubject godoc
// @Summary List requests against one subject
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param subjectId path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /adoption-requests/subject/{subjectId} [get]
func (h *RequestHandler) ListBySubject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListBySubject(c.Request.Context(), c.Param("subjectId"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
