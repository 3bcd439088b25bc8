package auth

import (
	"PoseCoach/pkg/response"
	"net/http"
)

var (
	ErrPasswordMismatch       = response.NewError(http.StatusBadRequest, "passwords do not match")
	ErrEmailAlreadyExists     = response.NewError(http.StatusBadRequest, "user already exists")
	ErrUserNotFound           = response.NewError(http.StatusNotFound, "user not found")
	ErrInvalidEmailOrPassword = response.NewError(http.StatusBadRequest, "invalid credentials")
)
