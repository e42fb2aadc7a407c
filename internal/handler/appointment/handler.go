package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicware/clinic-api/internal/middleware"
	"github.com/clinicware/clinic-api/internal/model"
	"github.com/clinicware/clinic-api/internal/service/booking"
	apperrors "github.com/clinicware/clinic-api/pkg/errors"
	"github.com/clinicware/clinic-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

// Book creates an appointment for the calling patient.
func (h *Handler) Book(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)
	if caller.PatientID == nil {
		httputil.RespondWithError(c, apperrors.Forbidden("caller has no patient profile"))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	date, t, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appt, err := h.service.Book(c.Request.Context(), *caller.PatientID, req.DoctorID, date, t)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	appt, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

// List returns appointments visible to the caller, optionally filtered by
// status and date range.
func (h *Handler) List(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	filters := &model.AppointmentFilters{}
	switch c.Query("range") {
	case "":
	case "today":
		filters.FromDate = model.Today()
		filters.ToDate = model.Today()
	case "week":
		filters.FromDate = model.Today()
		filters.ToDate = model.Today().AddDays(7)
	default:
		httputil.RespondWithError(c, apperrors.Validation("invalid range, want today or week"))
		return
	}
	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		if !s.Valid() {
			httputil.RespondWithError(c, apperrors.Validation("invalid status filter"))
			return
		}
		filters.Status = s
	}
	if from := c.Query("from"); from != "" {
		d, err := model.ParseDate(from)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid from date, want YYYY-MM-DD"))
			return
		}
		filters.FromDate = d
	}
	if to := c.Query("to"); to != "" {
		d, err := model.ParseDate(to)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid to date, want YYYY-MM-DD"))
			return
		}
		filters.ToDate = d
	}

	appointments, err := h.service.List(c.Request.Context(), caller, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	date, t, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	appt, err := h.service.Reschedule(c.Request.Context(), caller, id, date, t)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	appt, err := h.service.Cancel(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	if err := h.service.Delete(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	var req model.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	appt, err := h.service.SetStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

// Reopen returns a completed appointment to booked. Admin only.
func (h *Handler) Reopen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	appt, err := h.service.Reopen(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) SaveTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	var req model.SaveTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	treatment, err := h.service.RecordTreatment(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, treatment)
}

func (h *Handler) GetTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	treatment, err := h.service.GetTreatment(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, treatment)
}

// History returns a patient's appointment history. Doctors see only their
// shared appointments with that patient; admins see all of them.
func (h *Handler) History(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID"))
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	filters := &model.AppointmentFilters{PatientID: &patientID}
	appointments, err := h.service.List(c.Request.Context(), caller, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

// Stats returns the status breakdown for the admin dashboard.
func (h *Handler) Stats(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)
	counts, err := h.service.Stats(c.Request.Context(), caller)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, counts)
}

func parseDateTime(dateStr, timeStr string) (model.Date, model.TimeOfDay, error) {
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return model.Date{}, 0, apperrors.Validation("invalid date, want YYYY-MM-DD")
	}
	t, err := model.ParseTimeOfDay(timeStr)
	if err != nil {
		return model.Date{}, 0, apperrors.Validation("invalid time, want HH:MM")
	}
	return date, t, nil
}
