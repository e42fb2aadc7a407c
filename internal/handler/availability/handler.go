package availability

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicware/clinic-api/internal/middleware"
	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/repository"
	"github.com/clinicware/clinic-api/internal/service/scheduling"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
	"github.com/clinicware/clinic-api/pkg/httputil"
)

type Handler struct {
	service *scheduling.Service
	doctors repository.DoctorRepository
}

func NewHandler(service *scheduling.Service, doctors repository.DoctorRepository) *Handler {
	return &Handler{service: service, doctors: doctors}
}

// FreeSlots returns the bookable slot times for a doctor on a date.
// Unknown and blacklisted doctors both yield an empty list.
func (h *Handler) FreeSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
		return
	}

	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid date, want YYYY-MM-DD"))
		return
	}

	if doctor, err := h.doctors.Get(c.Request.Context(), doctorID); err != nil || doctor.IsBlacklisted {
		httputil.RespondWithSuccess(c, []model.TimeOfDay{})
		return
	}

	slots, err := h.service.FreeSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

// CreateWindow declares an availability window for the calling doctor.
func (h *Handler) CreateWindow(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)
	if caller.DoctorID == nil {
		httputil.RespondWithError(c, apperrors.Forbidden("caller has no doctor profile"))
		return
	}

	var req model.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid date, want YYYY-MM-DD"))
		return
	}
	start, err := model.ParseTimeOfDay(req.StartTime)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid start time, want HH:MM"))
		return
	}
	end, err := model.ParseTimeOfDay(req.EndTime)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid end time, want HH:MM"))
		return
	}

	window, err := h.service.CreateWindow(c.Request.Context(), *caller.DoctorID, date, start, end)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, window)
}

// ListWindows returns the calling doctor's windows over the booking
// horizon.
func (h *Handler) ListWindows(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)
	if caller.DoctorID == nil {
		httputil.RespondWithError(c, apperrors.Forbidden("caller has no doctor profile"))
		return
	}

	windows, err := h.service.ListWindows(c.Request.Context(), *caller.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, windows)
}

func (h *Handler) DeleteWindow(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)
	if caller.DoctorID == nil {
		httputil.RespondWithError(c, apperrors.Forbidden("caller has no doctor profile"))
		return
	}

	windowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid window ID"))
		return
	}

	if err := h.service.DeleteWindow(c.Request.Context(), *caller.DoctorID, windowID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}
