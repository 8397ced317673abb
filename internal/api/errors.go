package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/pkg/logging"
)

// ErrorDetail is the body of a failed request
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail under "error"
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// kindUnauthorized is returned by the auth middleware; domain errors never carry it
const kindUnauthorized = "unauthorized"

// statusFor maps an error kind to its HTTP status
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail aborts the request with the status and body for err
func fail(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)

	logger := logging.WithContext(c.Request.Context(),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", status))
	if kind == errs.KindInternal {
		logger.Error("Request failed", zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{
		Kind:    kind.String(),
		Message: errs.PublicMessage(err),
	}})
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{
		Kind:    kindUnauthorized,
		Message: message,
	}})
}

// bindJSON decodes the body into dst. Malformed JSON and failed binding
// tags both become validation errors.
func bindJSON(c *gin.Context, op string, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return errs.FromValidator(op, ve)
		}
		return errs.Validation(op, "malformed request body")
	}
	return nil
}
