package service

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/asistencia-app/attendance-service/internal/domain"
	apperrors "github.com/asistencia-app/attendance-service/pkg/util/errorutil"
)

// maxPinLength is the bcrypt input limit; every PIN digit is one byte.
const maxPinLength = 72

var namePattern = regexp.MustCompile(`^[A-Za-z\s]+$`)

// userFields is the validated shape of a directory entry after trimming.
type userFields struct {
	NationalID string      `validate:"required,number"`
	FullName   string      `validate:"required,fullname"`
	Pin        string      `validate:"required,number,max=72"`
	Role       domain.Role `validate:"required,oneof=admin user"`
}

type loginFields struct {
	NationalID string `validate:"required"`
	Pin        string `validate:"required"`
}

var fieldErrors = map[string]error{
	"NationalID": ErrInvalidNationalID,
	"FullName":   ErrInvalidName,
	"Pin":        ErrInvalidPin,
	"Role":       ErrInvalidRole,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateUser checks the named fields of u, or all of them when none are
// named, and reports the first failure as its directory sentinel.
func validateUser(u userFields, fields ...string) error {
	var err error
	if len(fields) == 0 {
		err = validate.Struct(u)
	} else {
		err = validate.StructPartial(u, fields...)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewInternalError(err)
	}
	if sentinel, ok := fieldErrors[verrs[0].StructField()]; ok {
		return sentinel
	}
	return apperrors.NewValidationError(verrs[0].Error(), nil)
}

func validateLogin(in loginFields) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewInternalError(err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.StructField() {
		case "NationalID":
			missing = append(missing, "cedula")
		case "Pin":
			missing = append(missing, "pin")
		}
	}
	return apperrors.NewValidationError("cedula and pin are required", map[string]any{"missing": missing})
}
