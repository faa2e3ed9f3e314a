package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/mentor-booking-api/internal/models"
)

// newValidator returns validate, or a fresh validator, with the scheduling tags registered.
func newValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("dayofweek", func(fl validator.FieldLevel) bool {
		return models.DayOfWeek(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := models.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	return validate
}
