// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form should be re-rendered with:
// - The user's previously entered values (echoed back)
// - The per-field messages from the validator
// - All the context data needed for the form (dropdowns, etc.)
//
// Example usage:
//
//	type registerData struct {
//		formutil.Base
//		Name  string
//		Email string
//	}
//
//	data := registerData{Name: in.Name, Email: in.Email}
//	formutil.SetBase(&data.Base, w, r, "Create account", "/")
//	data.SetErrors(res)
//	templates.Render(w, r, "auth_register", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
)

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	viewdata.BaseVM
	Error       template.HTML
	FieldErrors map[string]string
}

// SetBase populates the common page fields from the request.
func SetBase(b *Base, w http.ResponseWriter, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(w, r, title, backDefault)
}

// SetError sets the error message on a Base struct.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// SetErrors copies a validation result onto the form. The first message
// also becomes the page-level error.
func (b *Base) SetErrors(res *inputval.Result) {
	if res == nil || !res.HasErrors() {
		return
	}
	b.FieldErrors = make(map[string]string, len(res.Errors))
	for _, e := range res.Errors {
		if _, seen := b.FieldErrors[e.Field]; !seen {
			b.FieldErrors[e.Field] = e.Message
		}
	}
	b.SetError(res.First())
}

// FieldError returns the message for field, or "".
func (b Base) FieldError(field string) string {
	return b.FieldErrors[field]
}
