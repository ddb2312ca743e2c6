// internal/app/system/inputval/respond.go
package inputval

import (
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/respond"
)

// Flasher stores a one-shot message for the next page render.
type Flasher interface {
	Flash(w http.ResponseWriter, r *http.Request, kind, msg string)
}

// maxFlashed caps how many messages Respond flashes on HTML requests.
const maxFlashed = 3

// Respond answers a failed validation. JSON clients get 400 with the field
// list; browsers get the first few messages flashed and a redirect to back.
func Respond(w http.ResponseWriter, r *http.Request, res *Result, f Flasher, back string) {
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusBadRequest, respond.ErrorBody{
			Error:  "Validation failed",
			Fields: toFields(res),
		})
		return
	}
	if f != nil && res != nil {
		for i, e := range res.Errors {
			if i == maxFlashed {
				break
			}
			f.Flash(w, r, "error", e.Message)
		}
	}
	if back == "" {
		back = "/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func toFields(res *Result) []respond.FieldError {
	if res == nil {
		return nil
	}
	out := make([]respond.FieldError, len(res.Errors))
	for i, e := range res.Errors {
		out[i] = respond.FieldError{Field: e.Field, Message: e.Message}
	}
	return out
}
