package common

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	initOnce   sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

const requiredText = "{0} is required"

// InitValidators configures gin's validator: English messages and JSON
// field names in errors. Safe to call more than once.
func InitValidators() {
	initOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		english := en.New()
		uni := ut.New(english, english)
		translator, _ = uni.GetTranslator("en")
		if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
			slog.Error("registering default validation messages", "error", err)
		}

		// Use JSON tag names for errors instead of Go struct names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		if err := registerTranslation(v, "required", requiredText, true); err != nil {
			slog.Error("registering required validation message", "error", err)
		}
		validate = v
	})
}

// RegisterValidation adds a custom validation tag with an English message.
// text may reference the field name as {0}.
func RegisterValidation(tag, text string, fn validator.Func) error {
	InitValidators()
	if validate == nil {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return err
	}
	return registerTranslation(validate, tag, text, false)
}

func registerTranslation(v *validator.Validate, tag, text string, override bool) error {
	err := v.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
	if err != nil {
		return fmt.Errorf("registering %q message: %w", tag, err)
	}
	return nil
}

// TranslateBindError converts a binding error into a ValidationError with
// one message per invalid field.
func TranslateBindError(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: "invalid request: " + err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Translate(translator)
		fields[fe.Field()] = msg
		msgs = append(msgs, msg)
	}
	return &ValidationError{
		Message: "invalid request: " + strings.Join(msgs, "; "),
		Fields:  fields,
	}
}

// BindError responds with 400 for a failed ShouldBind* call.
func BindError(c *gin.Context, err error) {
	HandleError(c, TranslateBindError(err))
}
