package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// SendAlert generates an advisory for one user and delivers it to the
// channel address the user linked.
// POST /v1/alerts
func (h *Handler) SendAlert(c echo.Context) error {
	var req domain.AlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(domain.ErrBadRequest, "invalid request body"))
	}

	receipt, err := h.service.Dispatch(c.Request().Context(), &req)
	if err != nil {
		status := statusFor(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("dispatch failed")
			message = "internal server error"
		}
		return c.JSON(status, errorBody(err, message))
	}

	return c.JSON(http.StatusOK, receipt)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error, message string) map[string]string {
	return map[string]string{
		"error": message,
		"code":  domain.ErrorCode(err),
	}
}
