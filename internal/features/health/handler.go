package health

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// scope extracts the caller and the pet id; a malformed pet id is a
// missing pet.
func scope(c *gin.Context) (owner, pet primitive.ObjectID, ok bool) {
	p := middleware.MustPrincipal(c)
	pet, ok = response.ParamID(c, "petId", "pet")
	return p.ID, pet, ok
}

func recordScope(c *gin.Context) (owner, pet, id primitive.ObjectID, ok bool) {
	owner, pet, ok = scope(c)
	if !ok {
		return
	}
	id, ok = response.ParamID(c, "id", "health record")
	return
}

// List godoc
// @Summary List health records of a pet
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day, inclusive (YYYY-MM-DD)"
// @Success 200 {object} response.APIResponse{data=response.Page{items=[]Record}}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/records [get]
func (h *Handler) List(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	var q ListRecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	records, page, err := h.svc.List(c.Request.Context(), owner, pet, q)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Paginated(c, "Health records retrieved", records, page)
}

// Create godoc
// @Summary Add a health record
// @Tags health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param request body CreateRecordRequest true "Observation"
// @Success 201 {object} response.APIResponse{data=Record}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/records [post]
func (h *Handler) Create(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	record, err := h.svc.Create(c.Request.Context(), owner, pet, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Health record created", record)
}

// Get godoc
// @Summary Get a health record
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param id path string true "Record ID"
// @Success 200 {object} response.APIResponse{data=Record}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/records/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	owner, pet, id, ok := recordScope(c)
	if !ok {
		return
	}
	record, err := h.svc.Get(c.Request.Context(), owner, pet, id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Health record retrieved", record)
}

// Update godoc
// @Summary Update a health record
// @Description Sections sent replace the stored ones; send version to detect concurrent edits
// @Tags health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param id path string true "Record ID"
// @Param request body UpdateRecordRequest true "Sections to replace"
// @Success 200 {object} response.APIResponse{data=Record}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /health/pets/{petId}/records/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	owner, pet, id, ok := recordScope(c)
	if !ok {
		return
	}
	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	record, err := h.svc.Update(c.Request.Context(), owner, pet, id, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Health record updated", record)
}

// Delete godoc
// @Summary Delete a health record
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param id path string true "Record ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/records/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	owner, pet, id, ok := recordScope(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), owner, pet, id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Health record deleted", nil)
}

// Stats godoc
// @Summary Health statistics of a pet
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} response.APIResponse{data=Stats}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	var q WindowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), owner, pet, q.Days)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Health statistics", stats)
}

// WeightHistory godoc
// @Summary Weight history of a pet
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param days query int false "Window in days (default 90)"
// @Success 200 {object} response.APIResponse{data=[]WeightPoint}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/weight-history [get]
func (h *Handler) WeightHistory(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	var q WindowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	points, err := h.svc.WeightHistory(c.Request.Context(), owner, pet, q.Days)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Weight history", points)
}

// ActivitySummary godoc
// @Summary Daily activity summary of a pet
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Param days query int false "Window in days (default 7)"
// @Success 200 {object} response.APIResponse{data=[]DayActivity}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/activity-summary [get]
func (h *Handler) ActivitySummary(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	var q WindowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	summary, err := h.svc.ActivitySummary(c.Request.Context(), owner, pet, q.Days)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Activity summary", summary)
}

// Alerts godoc
// @Summary Health alerts of a pet
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Success 200 {object} response.APIResponse{data=[]Alert}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/alerts [get]
func (h *Handler) Alerts(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	alerts, err := h.svc.Alerts(c.Request.Context(), owner, pet)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Health alerts", alerts)
}

// UpcomingMedications godoc
// @Summary Medication courses still running
// @Tags health
// @Produce json
// @Security BearerAuth
// @Param petId path string true "Pet ID"
// @Success 200 {object} response.APIResponse{data=[]UpcomingMedication}
// @Failure 404 {object} response.ErrorResponse
// @Router /health/pets/{petId}/medications/upcoming [get]
func (h *Handler) UpcomingMedications(c *gin.Context) {
	owner, pet, ok := scope(c)
	if !ok {
		return
	}
	meds, err := h.svc.UpcomingMedications(c.Request.Context(), owner, pet)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Upcoming medications", meds)
}
