package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
// A broken stored policy is a server-side defect, not a caller mistake.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case pkgerrors.IsNotFound(err):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case pkgerrors.IsValidation(err):
		RespondError(c, http.StatusBadRequest, "validation_error", err)
	case pkgerrors.IsInvalidPolicy(err):
		RespondError(c, http.StatusInternalServerError, "invalid_policy", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
