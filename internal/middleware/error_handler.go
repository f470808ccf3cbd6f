package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
)

// ErrorHandler renders every error as the {error, message} body. Retryable
// contention responses carry a Retry-After hint.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := dto.ErrorResponse{Error: "internal_error", Message: "internal server error"}

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case dto.ErrorResponse:
			body = m
		case string:
			body = dto.ErrorResponse{Error: kindForStatus(code), Message: m}
		}
	}

	if code == http.StatusServiceUnavailable || code == http.StatusTooManyRequests {
		c.Response().Header().Set("Retry-After", "1")
	}
	_ = c.JSON(code, body)
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "duplicate_booking"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "admission_contention"
	}
	return "internal_error"
}
