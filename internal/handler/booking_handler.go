package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/service"
)

const (
	kindValidation    = "validation_error"
	kindNotFound      = "not_found"
	kindDuplicate     = "duplicate_booking"
	kindContention    = "admission_contention"
	kindBadTransition = "invalid_state_transition"
	kindInternal      = "internal_error"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	bookings := e.Group("/api/v1/bookings")
	bookings.POST("", h.CreateBooking)
	bookings.GET("", h.ListBookings)
	bookings.GET("/:id", h.GetBooking)
	bookings.DELETE("/:id", h.CancelBooking)

	e.GET("/api/v1/classes/:id/availability", h.SlotAvailability)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	cancelled, promoted, err := h.svc.CancelBooking(c.Request().Context(), bookingID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := dto.CancelBookingResponse{Status: cancelled.Status}
	if promoted != nil {
		resp.Promoted = &promoted.ID
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.svc.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID := c.QueryParam("user_id")

	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}
	upcoming := c.QueryParam("upcoming") == "true"

	bookings, err := h.svc.ListBookings(c.Request().Context(), userID, status, upcoming)
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) SlotAvailability(c echo.Context) error {
	avail, err := h.svc.SlotAvailability(
		c.Request().Context(),
		c.Param("id"),
		c.QueryParam("date"),
		c.QueryParam("time"),
	)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, avail)
}

// toHTTPError maps service errors onto status codes and stable error kinds.
// Contention gets 503 so clients know to retry with backoff.
func toHTTPError(err error) *echo.HTTPError {
	var (
		vErr   *service.ValidationError
		dupErr *service.DuplicateBookingError
		stsErr *service.InvalidStateTransitionError
	)
	switch {
	case errors.As(err, &vErr):
		return httpError(http.StatusBadRequest, kindValidation, vErr.Error())
	case errors.As(err, &dupErr):
		return httpError(http.StatusConflict, kindDuplicate, dupErr.Error())
	case errors.As(err, &stsErr):
		return httpError(http.StatusConflict, kindBadTransition, stsErr.Error())
	case errors.Is(err, service.ErrClassNotFound),
		errors.Is(err, service.ErrClassNotBookable),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		return httpError(http.StatusNotFound, kindNotFound, err.Error())
	case errors.Is(err, service.ErrAdmissionContention):
		return httpError(http.StatusServiceUnavailable, kindContention, err.Error())
	default:
		return httpError(http.StatusInternalServerError, kindInternal, "internal server error")
	}
}

func httpError(code int, kind, message string) *echo.HTTPError {
	return echo.NewHTTPError(code, dto.ErrorResponse{Error: kind, Message: message})
}
