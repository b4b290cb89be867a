package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps the error taxonomy onto transport status codes.
// The mapping is exhaustive on purpose: new error kinds must be added here
// or they fall through to a generic 500.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		// Idempotent no-op, not a failure.
		RespondSuccess(c, nil, "already processed")
	case errors.Is(err, ErrValidation):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		RespondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrInsufficientInventory):
		RespondError(c, http.StatusConflict, "out of stock")
	case errors.Is(err, ErrOrderState):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrAmountMismatch):
		RespondError(c, http.StatusUnprocessableEntity, "payment amount mismatch, flagged for review")
	case errors.Is(err, ErrGatewayUnavailable):
		RespondError(c, http.StatusBadGateway, "payment gateway unavailable, please retry")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
