package validator

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/goccy/go-json"
)

// maxBodyBytes caps request bodies; checkout payloads are a handful of fields.
const maxBodyBytes = 64 << 10

var validate, translator = setup()

func setup() (*validator.Validate, ut.Translator) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(fmt.Sprintf("register validation messages: %v", err))
	}
	return v, trans
}

// wireName reports a field by its json or query name so clients can map
// errors onto their inputs.
func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return f.Name
}

// ValidationError lists every rule a value broke.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = message(fe)
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each offending field to its message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

// message translates fe, falling back to a generic sentence for tags with no
// English translation.
func message(fe validator.FieldError) string {
	if msg := fe.Translate(translator); msg != fe.Error() {
		return msg
	}
	return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
}

// Validate checks s against its `validate` tags.
func Validate(s any) error {
	err := validate.Struct(s)
	if errs, ok := err.(validator.ValidationErrors); ok {
		return &ValidationError{Errors: errs}
	}
	return err
}

// DecodeAndValidate decodes a JSON body into dst, rejecting unknown fields,
// and validates the result.
func DecodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
