package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validator "github.com/go-playground/validator/v10"

	"github.com/clinicware/clinic-api/pkg/errors"
)

// Response wraps all API responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an API error body.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForKind maps the error taxonomy onto HTTP statuses. Business-rule
// rejections are 4xx; the storage race surfaces as slot_unavailable (400)
// after translation, never as a raw 500.
func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation,
		errors.KindDoctorUnavailable,
		errors.KindDateOutOfRange,
		errors.KindSlotUnavailable,
		errors.KindDuplicateDoctorBooking,
		errors.KindPatientTimeConflict,
		errors.KindIllegalTransition:
		return http.StatusBadRequest
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a 200 success envelope.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// RespondWithCreated sends a 201 success envelope.
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// RespondWithError classifies err and sends the matching status. Internal
// errors are masked; everything else is reported verbatim to the caller.
func RespondWithError(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status := statusForKind(kind)

	message := err.Error()
	if kind == errors.KindInternal {
		message = "internal server error"
	}

	c.Error(err)
	c.JSON(status, Response{
		Success: false,
		Error:   &Error{Code: string(kind), Message: message},
	})
}

// RespondWithStatus sends an error envelope with an explicit status,
// for cases outside the kind mapping (e.g. 429).
func RespondWithStatus(c *gin.Context, status int, err *errors.AppError) {
	c.Error(err)
	c.JSON(status, Response{
		Success: false,
		Error:   &Error{Code: string(err.Kind), Message: err.Message},
	})
}

// RespondWithBindingError reports request decoding/validation failures.
func RespondWithBindingError(c *gin.Context, err error) {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		RespondWithError(c, errors.Validation("invalid field "+fe.Field()+": failed on "+fe.Tag()))
		return
	}
	RespondWithError(c, errors.Wrap(errors.KindValidation, "invalid request body", err))
}
