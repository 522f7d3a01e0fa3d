package handler

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// UserDirectory looks up identity-provider accounts.
type UserDirectory interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// AdminChecker reports whether an email belongs to a moderator.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) bool
}

type UserHandler struct {
	users  UserDirectory
	admins AdminChecker
}

func NewUserHandler(users UserDirectory, admins AdminChecker) *UserHandler {
	return &UserHandler{users: users, admins: admins}
}

type PublicUserResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

type MeResponse struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (h *UserHandler) Me(c echo.Context) error {
	uid, email := currentUser(c)
	if uid == "" {
		return unauthorized(c)
	}
	isAdmin := h.admins != nil && h.admins.IsAdmin(c.Request().Context(), email)
	return c.JSON(http.StatusOK, MeResponse{UID: uid, Email: email, IsAdmin: isAdmin})
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid uid"))
	}
	if h.users == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "user directory not configured"))
	}
	user, err := h.users.GetUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "user not found"))
	}
	resp := PublicUserResponse{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		PhotoURL:    strPtrOrNil(user.PhotoURL),
	}
	return c.JSON(http.StatusOK, resp)
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
