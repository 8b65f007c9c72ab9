package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error, status int) errorResponse {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return errorResponse{Error: ve.Message, Field: ve.Field}
	}
	switch status {
	case http.StatusInternalServerError:
		return errorResponse{Error: "internal error"}
	case http.StatusBadGateway:
		return errorResponse{Error: "upstream unavailable"}
	case http.StatusUnauthorized:
		return errorResponse{Error: "unauthorized"}
	}
	return errorResponse{Error: err.Error()}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.JSON(status, errorBody(err, status))
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody(err, status))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
