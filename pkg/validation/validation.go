package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	esTranslations "github.com/go-playground/validator/v10/translations/es"

	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

var (
	once     sync.Once
	shared   *validator.Validate
	trans    ut.Translator
	slugExpr = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// BcryptMaxBytes is the longest input bcrypt accepts. The limit is in bytes,
// so multi-byte characters count more than once.
const BcryptMaxBytes = 72

// New returns the process-wide validator configured with JSON field names,
// Spanish messages and the custom tags used by request payloads.
func New() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)

		locale := es.New()
		uni := ut.New(locale, locale)
		trans, _ = uni.GetTranslator("es")
		_ = esTranslations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugExpr.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= BcryptMaxBytes
		})
		register(v, "slug", "{0} solo admite minúsculas, números y guiones")
		register(v, "bcryptmax", "{0} es demasiado larga")
		register(v, "oneof", "{0} debe ser uno de: {1}")
		register(v, "nefield", "{0} debe ser distinto de {1}")
		register(v, "gtefield", "{0} debe ser posterior o igual a {1}")

		shared = v
	})
	return shared
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func register(v *validator.Validate, tag, message string) {
	_ = v.RegisterTranslation(tag, trans, func(t ut.Translator) error {
		return t.Add(tag, message, true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		msg, err := t.T(tag, fe.Field(), fe.Param())
		if err != nil {
			return fe.Error()
		}
		return msg
	})
}

// Details converts validator output into field-level messages.
func Details(err error) []appErrors.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if trans != nil {
			msg = fe.Translate(trans)
		}
		details = append(details, appErrors.FieldError{Field: fieldPath(fe), Message: msg})
	}
	return details
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

// Error builds a VALIDATION_ERROR carrying per-field details.
func Error(err error, message string) *appErrors.Error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	out := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	if out.Message == "" {
		out.Message = appErrors.ErrValidation.Message
	}
	out.Details = Details(err)
	return out
}

// BindError reports a request body that could not be decoded.
func BindError(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cuerpo de la solicitud inválido")
}
