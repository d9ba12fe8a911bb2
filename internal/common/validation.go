package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. Field names in its errors are the
// JSON names of the struct fields.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// Validate checks s against its validate tags. The first failing field is
// reported as a ValidationError naming its JSON path, e.g. "items[1].quantity".
func Validate(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return ValidationError(fieldPath(fieldErrs[0].Namespace()), fieldErrs[0])
	}
	return ValidationError("body", err)
}

// DecodeJSON decodes the request body into dst. Type mismatches and values a
// field's own unmarshaler refuses are reported against the offending field.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ValidationError("body", errors.New("empty body"))
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ValidationError("body", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return ValidationError(field, err)
		}
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return ValidationError(name, err)
		}
		if errors.Is(err, io.EOF) {
			return ValidationError("body", errors.New("empty body"))
		}
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			if field := rejectedField(body, dst); field != "" {
				return ValidationError(field, err)
			}
		}
		return ValidationError("body", err)
	}
	return nil
}

// rejectedField names the top-level member of body that dst's matching field
// cannot decode. Errors from custom unmarshalers such as decimal.Decimal carry
// no field name of their own.
func rejectedField(body []byte, dst any) string {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}
	var members map[string]json.RawMessage
	if json.Unmarshal(body, &members) != nil {
		return ""
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		raw, ok := members[name]
		if !ok {
			continue
		}
		if json.Unmarshal(raw, reflect.New(f.Type).Interface()) != nil {
			return name
		}
	}
	return ""
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
