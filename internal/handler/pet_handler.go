package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pawnics/pawnics-api/internal/models"
	"github.com/pawnics/pawnics-api/internal/service"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
	"github.com/pawnics/pawnics-api/pkg/response"
	"github.com/pawnics/pawnics-api/pkg/storage"
)

// PetHandler wires HTTP endpoints to the pet service.
type PetHandler struct {
	service *service.PetService
	photos  *storage.PhotoStore
}

// NewPetHandler creates a new handler.
func NewPetHandler(svc *service.PetService, photos *storage.PhotoStore) *PetHandler {
	return &PetHandler{service: svc, photos: photos}
}

// Create godoc
// @Summary List a pet for adoption
// @Tags Pets
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Pet name"
// @Param breed formData string true "Breed"
// @Param photo formData file false "Photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pets [post]
func (h *PetHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreatePetRequest
	if err := h.bind(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pet payload"))
		return
	}

	photoPath, err := h.savePhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pet, err := h.service.Create(c.Request.Context(), claims.UserID, req, photoPath)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, pet)
}

// List godoc
// @Summary List all pets
// @Tags Pets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pets [get]
func (h *PetHandler) List(c *gin.Context) {
	pets, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pets, nil)
}

// Get godoc
// @Summary Get one pet
// @Tags Pets
// @Produce json
// @Param id path string true "Pet id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pets/{id} [get]
func (h *PetHandler) Get(c *gin.Context) {
	pet, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pet, nil)
}

// ListMine godoc
// @Summary List the caller's pets
// @Tags Pets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /pets/mine [get]
func (h *PetHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pets, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pets, nil)
}

// Update godoc
// @Summary Update a pet listing
// @Tags Pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pets/{id} [put]
func (h *PetHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdatePetRequest
	if err := h.bind(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pet payload"))
		return
	}

	photoPath, err := h.savePhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pet, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, req, photoPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pet, nil)
}

// Delete godoc
// @Summary Delete a pet listing
// @Tags Pets
// @Security BearerAuth
// @Param id path string true "Pet id"
// @Success 204 "No Content"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pets/{id} [delete]
func (h *PetHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pet, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), pet.ID, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	if h.photos != nil {
		_ = h.photos.Delete(pet.Photo)
	}
	response.NoContent(c)
}

// bind accepts either a JSON body or a multipart form.
func (h *PetHandler) bind(c *gin.Context, dest interface{}) error {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.ShouldBind(dest)
	}
	return c.ShouldBindJSON(dest)
}

// savePhoto stores the optional multipart photo and returns its relative path.
func (h *PetHandler) savePhoto(c *gin.Context) (string, error) {
	if h.photos == nil || !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", nil
	}
	header, err := c.FormFile("photo")
	if err != nil {
		return "", nil
	}
	path, err := h.photos.SaveUpload("pets", header)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload")
	}
	return path, nil
}
