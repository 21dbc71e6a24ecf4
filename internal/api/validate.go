package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"wheel-rotation-backend/internal/schedule"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	cadenceTag  = "cadence"
)

var (
	registerOnce sync.Once
	translator   ut.Translator
)

// registerValidators installs the validation setup on gin's engine. A failure
// is a programming error, so it panics rather than letting binds fail later
// with an undefined validation function.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("unexpected validator engine %T", binding.Validator.Engine()))
		}
		trans, err := setupValidator(v)
		if err != nil {
			panic(err)
		}
		translator = trans
	})
}

// setupValidator adds JSON field names, english messages and the custom tags
// to v.
func setupValidator(v *validator.Validate) (ut.Translator, error) {
	_en := en.New()
	uni := ut.New(_en, _en)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("validator: english translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("validator: register default translations: %w", err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	customs := map[string]validator.Func{
		notBlankTag: notBlankValidation,
		cadenceTag:  cadenceValidation,
	}
	noop := func(ut.Translator) error { return nil }
	for tag, fn := range customs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("validator: register %s: %w", tag, err)
		}
		if err := v.RegisterTranslation(tag, trans, noop, translateCustomValidationErrs); err != nil {
			return nil, fmt.Errorf("validator: register %s translation: %w", tag, err)
		}
	}
	return trans, nil
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case cadenceTag:
		return "must be one of weekly, monthly, quarterly, biannually, annually"
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func cadenceValidation(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := schedule.ParseFrequency(str)
	return err == nil
}

// fieldMessages renders validator errors keyed by JSON field name.
func fieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		if translator != nil {
			out[fe.Field()] = fe.Translate(translator)
		} else {
			out[fe.Field()] = fe.Error()
		}
	}
	return out
}
