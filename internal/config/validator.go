package config

import (
	"PoseCoach/internal/api/pose"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	if err := pose.RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
