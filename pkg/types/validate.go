package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// entityValidator returns the shared validator, configured to report JSON
// field names.
func entityValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the profile fields. A missing or oversized name returns an
// error wrapping ErrInvalidName; other failures wrap ErrInvalidData.
func (p *ControllerProfile) Validate() error {
	if p == nil {
		return ErrInvalidData
	}
	return validateEntity(p)
}

// Validate checks the macro fields and each of its events.
func (m *Macro) Validate() error {
	if m == nil {
		return ErrInvalidData
	}
	return validateEntity(m)
}

func validateEntity(v any) error {
	err := entityValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	for _, fe := range fieldErrs {
		// Top-level Name only; nested fields are plain data errors.
		if fe.StructField() == "Name" && strings.Count(fe.StructNamespace(), ".") == 1 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidName, fe.Field(), fe.Tag())
		}
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%w: %s failed %q", ErrInvalidData, fe.Namespace(), fe.Tag())
}
