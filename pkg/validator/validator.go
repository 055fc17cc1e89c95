package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the domain enum tags registered:
// `priority`, `task_status` and `user_role`.
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, err := entities.ParsePriority(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		_, err := entities.ParseTaskStatus(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return entities.UserRole(fl.Field().String()).IsValid()
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
