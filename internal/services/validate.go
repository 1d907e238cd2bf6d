package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/dates"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	dateTag     = "ddmmyyyy"
	weekdaysTag = "weekdays"
	monthTag    = "yyyymm"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report json names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(dateTag, dateValidation)
	_ = validate.RegisterValidation(weekdaysTag, weekdaysValidation)
	_ = validate.RegisterValidation(monthTag, monthValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{dateTag, weekdaysTag, monthTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case dateTag:
		return "expected dd/MM/yyyy"
	case weekdaysTag:
		return "expected comma separated weekday names"
	case monthTag:
		return "expected YYYY-MM"
	default:
		return ""
	}
}

func dateValidation(fl validator.FieldLevel) bool {
	return dates.Valid(fl.Field().String())
}

func weekdaysValidation(fl validator.FieldLevel) bool {
	_, err := dates.ParseDays(dates.SplitDays(fl.Field().String()))
	return err == nil
}

func monthValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	_, ok := dates.Month("01/" + s[5:] + "/" + s[:4])
	return ok
}

// check validates v and converts failures into a Validation error naming
// every offending field.
func check(v any, subject string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.NewValidation(apperr.ErrInvalidInput, subject)
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return apperr.NewValidation(apperr.ErrInvalidInput, subject, fields...)
}
