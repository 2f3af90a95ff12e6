package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/attendance-api/internal/models"
)

// NewValidator returns a validator with the custom tags used by request models.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return v
}
