package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/MrEthical07/authkeep"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
				return false
			}
		}
		return true
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		var lower, upper, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	})
	return v
}

// bind decodes the JSON body into dst, trims string fields and validates it.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return authkeep.ValidationError("Validation errors", []string{"request body required"})
		case errors.As(err, &maxErr):
			return authkeep.ValidationError("Validation errors", []string{"request body too large"})
		default:
			return authkeep.ValidationError("Validation errors", []string{"malformed JSON body"})
		}
	}
	trimStrings(dst)
	return s.check(dst)
}

func (s *Server) check(dst any) error {
	err := s.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return authkeep.ValidationError("Validation errors", []string{err.Error()})
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return authkeep.ValidationError("Validation errors", details)
}

// trimStrings trims every exported string field of a struct pointer, except
// password fields.
func trimStrings(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() {
			continue
		}
		if strings.Contains(strings.ToLower(t.Field(i).Name), "password") {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "email":
		return "Please provide a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "alphanum":
		return field + " can only contain letters and numbers"
	case "personname":
		return field + " can only contain letters and spaces"
	case "strongpassword":
		return field + " must contain at least one lowercase letter, one uppercase letter, and one number"
	case "eqfield":
		return "Password confirmation does not match password"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "len", "numeric":
		return field + " is invalid"
	default:
		return field + " is invalid"
	}
}
