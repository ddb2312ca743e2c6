// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Status  int
	Heading string
	Message string
}

// render answers with status. JSON clients get {"error": msg}; browsers get
// the error page with a back link.
func render(w http.ResponseWriter, r *http.Request, status int, heading, msg, backURL string) {
	if respond.WantsJSON(r) {
		respond.Error(w, status, msg)
		return
	}
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(w, r, heading, backURL),
		Status:  status,
		Heading: heading,
		Message: msg,
	}
	data.BackURL = backURL

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderBadRequest shows a 400 page with msg.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusBadRequest, "Bad request", msg, backURL)
}

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it defaults to /auth/login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/auth/login"
	}
	render(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// RenderForbidden shows a friendly access error page with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "You don't have permission to view this page."
	}
	render(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderNotFound shows a 404 page with msg.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "The page you requested could not be found."
	}
	render(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

// RenderServerError shows a generic 500 page with msg.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	render(w, r, http.StatusInternalServerError, "Server error", msg, backURL)
}
