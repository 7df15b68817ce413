package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pawnics/pawnics-api/internal/models"
	"github.com/pawnics/pawnics-api/internal/service"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/response"
	"github.com/pawnics/pawnics-api/pkg/storage"
)

// LostFoundHandler wires HTTP endpoints to the lost/found service.
type LostFoundHandler struct {
	service *service.LostFoundService
	photos  *storage.PhotoStore
}

// NewLostFoundHandler creates a new handler.
func NewLostFoundHandler(svc *service.LostFoundService, photos *storage.PhotoStore) *LostFoundHandler {
	return &LostFoundHandler{service: svc, photos: photos}
}

// Create godoc
// @Summary File a lost/found report
// @Tags LostFound
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param type formData string true "lost or found"
// @Param pet_name formData string true "Pet name"
// @Param photo formData file false "Photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lost-found [post]
func (h *LostFoundHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateReportRequest
	if err := h.bind(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	photoPath, err := h.savePhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.service.Create(c.Request.Context(), claims.UserID, req, photoPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// List godoc
// @Summary List lost/found reports
// @Tags LostFound
// @Produce json
// @Param type query string false "lost or found"
// @Param pet_type query string false "Pet type"
// @Param breed query string false "Breed substring"
// @Param status query string false "Status, defaults to active"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lost-found [get]
func (h *LostFoundHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := models.ReportFilter{
		Type:    c.Query("type"),
		PetType: c.Query("pet_type"),
		Breed:   c.Query("breed"),
		Status:  c.Query("status"),
		Page:    page,
		Limit:   limit,
	}

	reports, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get one report
// @Tags LostFound
// @Produce json
// @Param id path string true "Report id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lost-found/{id} [get]
func (h *LostFoundHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListMine godoc
// @Summary List the caller's reports
// @Tags LostFound
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /lost-found/mine [get]
func (h *LostFoundHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reports, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Update godoc
// @Summary Update a report
// @Tags LostFound
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report id"
// @Param payload body models.UpdateReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lost-found/{id} [put]
func (h *LostFoundHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	report, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, req, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Resolve godoc
// @Summary Mark a report resolved
// @Tags LostFound
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /lost-found/{id}/resolve [patch]
func (h *LostFoundHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.Resolve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete a report and its conversations
// @Tags LostFound
// @Security BearerAuth
// @Param id path string true "Report id"
// @Success 204 "No Content"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lost-found/{id} [delete]
func (h *LostFoundHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), report.ID, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	if h.photos != nil {
		_ = h.photos.Delete(report.Photo)
	}
	response.NoContent(c)
}

func (h *LostFoundHandler) bind(c *gin.Context, dest interface{}) error {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.ShouldBind(dest)
	}
	return c.ShouldBindJSON(dest)
}

func (h *LostFoundHandler) savePhoto(c *gin.Context) (string, error) {
	if h.photos == nil || !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", nil
	}
	header, err := c.FormFile("photo")
	if err != nil {
		return "", nil
	}
	path, err := h.photos.SaveUpload("lost-found", header)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload")
	}
	return path, nil
}
