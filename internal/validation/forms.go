package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormValidator проверяет формы регистрации, входа, профиля и обратной связи по тегам validate.
type FormValidator struct {
	v *validator.Validate
}

// NewFormValidator создаёт валидатор форм.
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &FormValidator{v: v}
}

// FieldError описывает одну ошибку поля формы.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// FormError содержит все ошибки полей формы.
type FormError struct {
	Fields []FieldError
}

func (e *FormError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Rule))
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

// Struct проверяет структуру формы. Ошибки полей возвращаются как *FormError.
func (fv *FormValidator) Struct(form any) error {
	err := fv.v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := &FormError{Fields: make([]FieldError, 0, len(verrs))}
	for _, ve := range verrs {
		fe.Fields = append(fe.Fields, FieldError{Field: ve.Field(), Rule: ve.Tag()})
	}
	return fe
}
