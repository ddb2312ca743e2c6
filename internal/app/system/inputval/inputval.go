// internal/app/system/inputval/inputval.go
//
// Package inputval validates request input against declarative struct tags.
//
// Input types carry three tags: `form`/`json` for decoding, `validate` for
// go-playground/validator rules and `label` for the human name used in
// messages. Bind decodes a request into such a struct, sanitizes the fields
// tagged with `sanitize`, then validates.
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/eventportal/internal/app/system/authutil"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field. Field is the submitted field
// name (the form/json key), not the Go field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the errors produced by Validate or Bind.
type Result struct {
	Errors []FieldError `json:"errors"`
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// First returns the first message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Add appends a field error.
func (r *Result) Add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// ForField returns the first message for field, or "".
func (r *Result) ForField(field string) string {
	if r == nil {
		return ""
	}
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)

		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
			return IsValidEventType(fl.Field().String())
		})
		_ = v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
			return IsValidFormFieldType(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return IsValidRole(fl.Field().String())
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return IsValidUsername(fl.Field().String())
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return authutil.ValidatePasswordStrength(fl.Field().String()).IsValid
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return IsValidClock(fl.Field().String())
		})

		registerStructRules(v)
		validate = v
	})
	return validate
}

// fieldName reports the submitted key for a struct field: the form tag,
// then the json tag, then the Go name.
func fieldName(sf reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(sf.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return sf.Name
}

// Validate runs the validate tags (and any struct-level rules) on v.
// v may be a struct or a pointer to one.
func Validate(v any) *Result {
	res := &Result{}
	err := engine().Struct(v)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Add("", "Invalid input.")
		return res
	}

	labels := labelsOf(v)
	for _, fe := range verrs {
		field := fe.Field()
		ns := stripIndexes(fe.StructNamespace())
		label := labels[ns]
		if label == "" {
			label = fe.StructField()
		}
		if fe.Tag() == "password" {
			for _, msg := range authutil.ValidatePasswordStrength(fe.Value().(string)).Errors {
				res.Add(field, msg)
			}
			continue
		}
		res.Add(field, message(fe, label, labels, parentOf(ns)))
	}
	return res
}

// labelsOf maps struct namespaces ("EventInput.Reports.Title") to their
// label tags, walking nested structs. Slice indexes are not part of the key.
func labelsOf(v any) map[string]string {
	out := map[string]string{}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil {
		collectLabels(t, t.Name(), out)
	}
	return out
}

func collectLabels(t reflect.Type, prefix string, out map[string]string) {
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		key := prefix + "." + sf.Name
		if l := sf.Tag.Get("label"); l != "" {
			out[key] = l
		}
		ft := sf.Type
		if ft.Kind() == reflect.Slice || ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() == t.PkgPath() {
			collectLabels(ft, key, out)
		}
	}
}

// stripIndexes drops "[n]" segments from a validator namespace.
func stripIndexes(ns string) string {
	if !strings.Contains(ns, "[") {
		return ns
	}
	var b strings.Builder
	depth := 0
	for _, r := range ns {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parentOf(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[:i]
	}
	return ""
}

func message(fe validator.FieldError, label string, labels map[string]string, parent string) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "A valid email address is required."
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s may have at most %s entries.", label, param)
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, param)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries.", label, param)
		}
		return fmt.Sprintf("%s must be at least %s characters.", label, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters.", label, param)
	case "eqfield":
		if param == "Password" {
			return "Passwords do not match."
		}
		other := labels[parent+"."+param]
		if other == "" {
			other = param
		}
		return fmt.Sprintf("%s must match %s.", label, other)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(param, " ", ", "))
	case "httpurl", "url":
		return fmt.Sprintf("%s must be a valid http or https URL.", label)
	case "objectid":
		return fmt.Sprintf("%s is not a valid ID.", label)
	case "eventtype":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(EventTypesList(), ", "))
	case "fieldtype":
		return fmt.Sprintf("%s is not a supported field type.", label)
	case "role":
		return fmt.Sprintf("%s must be admin or user.", label)
	case "username":
		return fmt.Sprintf("%s may contain only letters, digits, dots, dashes and underscores (3-30).", label)
	case "datetime":
		return fmt.Sprintf("%s must be a valid date (YYYY-MM-DD).", label)
	case "hhmm":
		return fmt.Sprintf("%s must be a valid time (HH:MM).", label)
	case "enddate":
		return "End date must be on or after the start date."
	case "numeric", "number":
		return fmt.Sprintf("%s must be a number.", label)
	case "gte", "gt":
		return fmt.Sprintf("%s must be at least %s.", label, param)
	case "lte", "lt":
		return fmt.Sprintf("%s must be at most %s.", label, param)
	}
	return fmt.Sprintf("%s is invalid.", label)
}
