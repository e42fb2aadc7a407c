package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicware/clinic-api/internal/middleware"
	"github.com/clinicware/clinic-api/internal/model"
	doctorsvc "github.com/clinicware/clinic-api/internal/service/doctor"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
	"github.com/clinicware/clinic-api/pkg/httputil"
)

type Handler struct {
	service *doctorsvc.Service
}

func NewHandler(service *doctorsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	doctor, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doctor)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
		return
	}

	doctor, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// Patients never see blacklisted doctors.
	caller, _ := middleware.CallerFromContext(c)
	if doctor.IsBlacklisted && caller.Role == model.RolePatient {
		httputil.RespondWithError(c, apperrors.NotFound("doctor"))
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

// List returns the doctor directory. Blacklisted doctors appear only for
// admins that ask for them.
func (h *Handler) List(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)
	filters := &model.DoctorFilters{
		Search:             c.Query("search"),
		IncludeBlacklisted: caller.IsAdmin() && c.Query("include_blacklisted") == "true",
	}

	doctors, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	if !caller.IsAdmin() && !caller.OwnsDoctor(id) {
		httputil.RespondWithError(c, apperrors.Forbidden("cannot edit another doctor's profile"))
		return
	}

	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	doctor, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) SetBlacklisted(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
		return
	}

	var req struct {
		Blacklisted *bool `json:"blacklisted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	doctor, err := h.service.SetBlacklisted(c.Request.Context(), id, *req.Blacklisted)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}
