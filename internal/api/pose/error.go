package pose

import (
	"PoseCoach/pkg/response"
	"net/http"
)

var (
	ErrInvalidImage         = response.NewError(http.StatusBadRequest, "invalid image")
	ErrImageRequired        = response.NewError(http.StatusBadRequest, "image or image_base64 is required")
	ErrNoPersonDetected     = response.NewError(http.StatusUnprocessableEntity, "no person detected in image")
	ErrFrameRejected        = response.NewError(http.StatusUnprocessableEntity, "pose estimator rejected frame")
	ErrEstimatorUnavailable = response.NewError(http.StatusBadGateway, "pose estimator unavailable")
	ErrEvaluationNotFound   = response.NewError(http.StatusNotFound, "evaluation not found")
	ErrUnknownUser          = response.NewError(http.StatusUnauthorized, "user no longer exists")
	ErrInternalServerError  = response.NewError(http.StatusInternalServerError, "internal server error")
)
