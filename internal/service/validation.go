// validation.go — проверка форм клиентов (go-playground/validator).
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bigkaa/zntax/portal-module/internal/apiclient"
)

// FieldsError — перечень полей формы, не прошедших проверку.
type FieldsError struct {
	Fields []string
}

func (e *FieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(e.Fields, ", "))
}

// Is позволяет сравнивать через errors.Is(err, ErrValidation).
func (e *FieldsError) Is(target error) bool {
	return target == ErrValidation
}

// validate — общий валидатор форм; имена полей берутся из json-тегов.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// validateStruct проверяет структуру и возвращает *FieldsError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &FieldsError{Fields: fields}
}

// normalizeClientCreate обрезает пробелы; пароль не изменяется.
func normalizeClientCreate(in apiclient.ClientCreate) apiclient.ClientCreate {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PAN = strings.TrimSpace(in.PAN)
	in.GSTIN = strings.TrimSpace(in.GSTIN)
	in.Address = strings.TrimSpace(in.Address)
	return in
}

// normalizeClientUpdate обрезает пробелы.
func normalizeClientUpdate(in apiclient.ClientUpdate) apiclient.ClientUpdate {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PAN = strings.TrimSpace(in.PAN)
	in.GSTIN = strings.TrimSpace(in.GSTIN)
	in.Address = strings.TrimSpace(in.Address)
	return in
}
