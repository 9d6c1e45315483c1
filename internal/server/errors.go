package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
	generationdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/domain"
	obscontext "github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/context"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/logger"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/provider"
	"go.uber.org/zap"
)

// ErrNotFound is the generic missing-resource error for routes.
var ErrNotFound = errors.New("not_found")

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e apiError) Error() string { return e.Message }

func invalidRequestError() apiError {
	return apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) apiError {
	return apiError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// AbortWithError maps domain sentinel errors to the API error
// envelope. An insufficient balance gets a distinct 402 so clients can
// offer a top-up flow instead of a generic retry.
func AbortWithError(c *gin.Context, err error) {
	requestID := obscontext.RequestIDFromGin(c)

	var api apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api, "request_id": requestID})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, generationdomain.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
		code = "insufficient_credits"
	case errors.Is(err, creditdomain.ErrStoreUnavailable),
		errors.Is(err, projectdomain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		code = "store_unavailable"
	case errors.Is(err, creditdomain.ErrRefundFailed):
		status = http.StatusInternalServerError
		code = "refund_failed"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, creditdomain.ErrAccountNotFound),
		errors.Is(err, projectdomain.ErrProjectNotFound),
		errors.Is(err, projectdomain.ErrVersionNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, generationdomain.ErrInvalidRequest),
		errors.Is(err, generationdomain.ErrNoDocuments),
		errors.Is(err, creditdomain.ErrInvalidUser),
		errors.Is(err, creditdomain.ErrInvalidAmount),
		errors.Is(err, projectdomain.ErrInvalidUser),
		errors.Is(err, projectdomain.ErrInvalidTitle):
		status = http.StatusBadRequest
		code = "validation_failed"
	case errors.Is(err, provider.ErrUnknownProvider):
		status = http.StatusBadRequest
		code = "unknown_provider"
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": apiError{
			Status:  status,
			Code:    code,
			Message: err.Error(),
		},
		"request_id": requestID,
	})
}
