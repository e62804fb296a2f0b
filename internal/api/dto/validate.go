package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag   = "notblank"
	classLevelTag = "class_level"
	signUpRoleTag = "signup_role"
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report json field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation(classLevelTag, func(fl validator.FieldLevel) bool {
		return domain.ValidClassLevel(fl.Field().String())
	})
	_ = validate.RegisterValidation(signUpRoleTag, func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).SelfAssignable()
	})

	messages := map[string]string{
		notBlankTag:   "{0} must not be blank",
		classLevelTag: "{0} must be one of " + strings.Join(domain.ClassLevels, ", "),
		signUpRoleTag: "{0} must be student, teacher or parent",
	}
	for tag, text := range messages {
		_ = validate.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(fe.Tag(), fe.Field())
				return msg
			})
	}
}

// Validate checks struct tags and returns a VALIDATION_FAILED error keyed by field.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Translate(translator)
	}
	return apperrors.NewValidationError("invalid payload", details)
}
