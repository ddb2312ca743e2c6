// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/csrf"
	"github.com/dalemusser/waffle/pantry/httpnav"
)

// DefaultSiteName is used until Init supplies a configured name.
const DefaultSiteName = "Event Management Portal"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn  bool
	User        *auth.SessionUser
	Role        string
	UserName    string
	IsModerator bool

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	CSRFToken string
	Flashes   []auth.Flash
}

// FlashSource yields and clears pending flash messages.
type FlashSource interface {
	Flashes(w http.ResponseWriter, r *http.Request) []auth.Flash
}

var (
	siteName             = DefaultSiteName
	flashes  FlashSource = nil
)

// Init sets the site name and the flash source.
// Call this once at startup from bootstrap.
func Init(name string, src FlashSource) {
	if name != "" {
		siteName = name
	}
	flashes = src
}

// NewBaseVM creates a fully populated BaseVM for a page. Pending flashes
// are consumed, so call it once per rendered page.
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    siteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.User = u
		vm.Role = u.Role
		vm.UserName = u.Name
		vm.IsModerator = u.IsModerator()
	}
	if flashes != nil && w != nil {
		vm.Flashes = flashes.Flashes(w, r)
	}
	return vm
}

// SiteName returns the configured site name.
func SiteName() string { return siteName }
