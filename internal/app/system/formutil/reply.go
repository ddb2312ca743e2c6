package formutil

import (
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
)

// Done answers a successful POST: {"message","redirect"} for JSON clients,
// otherwise a success flash and a 303 to dest.
func Done(w http.ResponseWriter, r *http.Request, f inputval.Flasher, msg, dest string) {
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]string{"message": msg, "redirect": dest})
		return
	}
	if msg != "" && f != nil {
		f.Flash(w, r, auth.FlashSuccess, msg)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// Fail answers a rejected POST that has no form to re-render: a JSON error
// with status, or an error flash and a 303 to dest.
func Fail(w http.ResponseWriter, r *http.Request, f inputval.Flasher, status int, msg, dest string) {
	if respond.WantsJSON(r) {
		respond.Error(w, status, msg)
		return
	}
	if f != nil {
		f.Flash(w, r, auth.FlashError, msg)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
