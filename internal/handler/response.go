package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// respondError maps a service error kind onto a status code. what names the
// resource for not-found messages.
func respondError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", what+" not found"))
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, NewErrorResponse("conflict", err.Error()))
	case errors.Is(err, service.ErrStorageUnavailable):
		zlog.Ctx(c.Request().Context()).Error().Err(err).Msg("storage unavailable")
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("storage_unavailable", "storage is unavailable, try again later"))
	default:
		zlog.Ctx(c.Request().Context()).Error().Err(err).Msg("unexpected error")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "internal error"))
	}
}

func currentUser(c echo.Context) (uid, email string) {
	uid, _ = c.Get("uid").(string)
	email, _ = c.Get("email").(string)
	return uid, email
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}
