package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawnics/pawnics-api/internal/service"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/response"
)

// ExportHandler streams request exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ReceivedRequests godoc
// @Summary Export received adoption requests
// @Description Download the caller's received adoption requests as CSV or PDF
// @Tags Requests
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /adoption-requests/export [get]
func (h *ExportHandler) ReceivedRequests(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	doc, err := h.service.ReceivedRequests(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
