package pets

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/cloudinary"
	"github.com/xyz-asif/oipet/internal/pkg/response"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List godoc
// @Summary List my pets
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Items per page (default 10, max 100)"
// @Param search query string false "Name or breed contains"
// @Param species query string false "dog, cat or other"
// @Success 200 {object} response.APIResponse{data=response.Page{items=[]Pet}}
// @Failure 401 {object} response.ErrorResponse
// @Router /pets [get]
func (h *Handler) List(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	var q ListPetsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	items, page, err := h.svc.List(c.Request.Context(), p.ID, q)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Paginated(c, "Pets retrieved", items, page)
}

// Create godoc
// @Summary Create a pet
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePetRequest true "Pet data"
// @Success 201 {object} response.APIResponse{data=Pet}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /pets [post]
func (h *Handler) Create(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	var req CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pet, err := h.svc.Create(c.Request.Context(), p.ID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Pet created", pet)
}

// Get godoc
// @Summary Get a pet
// @Description Pets of other users answer 404, exactly like unknown ids
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Success 200 {object} response.APIResponse{data=Pet}
// @Failure 404 {object} response.ErrorResponse
// @Router /pets/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "pet")
	if !ok {
		return
	}

	pet, err := h.svc.Get(c.Request.Context(), p.ID, id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Pet retrieved", pet)
}

// Update godoc
// @Summary Update a pet
// @Description Send version to reject the write when the pet changed since it was read
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Param request body UpdatePetRequest true "Fields to change"
// @Success 200 {object} response.APIResponse{data=Pet}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /pets/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "pet")
	if !ok {
		return
	}

	var req UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pet, err := h.svc.Update(c.Request.Context(), p.ID, id, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Pet updated", pet)
}

// Delete godoc
// @Summary Delete a pet and its health records
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /pets/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "pet")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), p.ID, id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Pet deleted", nil)
}

// UploadAvatar godoc
// @Summary Upload pet picture
// @Tags pets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pet ID"
// @Param image formData file true "Image file (jpg, png, gif, webp; max 5MB)"
// @Success 200 {object} response.APIResponse{data=Pet}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /pets/{id}/avatar [post]
func (h *Handler) UploadAvatar(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "pet")
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		response.HandleError(c, apperrors.Validation("image file is required"))
		return
	}
	if err := cloudinary.ValidateImageFile(header); err != nil {
		response.HandleError(c, apperrors.Validation(err.Error()))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.HandleError(c, apperrors.Internal(err))
		return
	}
	defer file.Close()

	pet, err := h.svc.SetAvatar(c.Request.Context(), p.ID, id, file)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Pet picture updated", pet)
}

// Stats godoc
// @Summary Statistics of my pets
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=Stats}
// @Router /pets/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	stats, err := h.svc.Stats(c.Request.Context(), p.ID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Pet statistics", stats)
}

// AdminList godoc
// @Summary List all pets (admin)
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param search query string false "Name or breed contains"
// @Param species query string false "dog, cat or other"
// @Success 200 {object} response.APIResponse{data=response.Page{items=[]Pet}}
// @Failure 403 {object} response.ErrorResponse
// @Router /pets/admin/all [get]
func (h *Handler) AdminList(c *gin.Context) {
	var q ListPetsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	items, page, err := h.svc.AdminList(c.Request.Context(), q)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Paginated(c, "Pets retrieved", items, page)
}

// AdminStats godoc
// @Summary Statistics of all pets (admin)
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=Stats}
// @Failure 403 {object} response.ErrorResponse
// @Router /pets/admin/stats [get]
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.svc.AdminStats(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Pet statistics", stats)
}
