// Package validator valida DTOs de entrada con go-playground/validator y traduce el primer fallo a un error de dominio.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// FieldError un fallo de validación por campo (nombre JSON).
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Reportar los campos con su nombre JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct devuelve todos los fallos del struct; vacío si es válido.
func ValidateStruct(data any) []FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Tag: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// Validate devuelve el primer fallo como *domain.ValidationError (errors.Is(err, domain.ErrInvalidInput)).
func Validate(data any) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return domain.Invalid(first.Field, reason(first))
}

func reason(fe FieldError) string {
	switch fe.Tag {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param)
	case "min":
		return fmt.Sprintf("must have at least %s characters", fe.Param)
	case "max":
		return fmt.Sprintf("must have at most %s characters", fe.Param)
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param)
	default:
		return fmt.Sprintf("failed on %s", fe.Tag)
	}
}
