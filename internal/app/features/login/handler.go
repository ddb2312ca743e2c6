// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	loginstore "github.com/dalemusser/eventportal/internal/app/store/logins"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/csrf"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/mailer"
	"github.com/dalemusser/eventportal/internal/app/system/ratelimit"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves registration, password sign-in, email verification and
// password reset under /auth.
type Handler struct {
	Users         *userstore.Store
	Logins        *loginstore.Store
	Sessions      *auth.SessionManager
	CSRF          *csrf.Protector
	Tokens        *tokens.Manager
	Guard         *ratelimit.LoginGuard
	Sec           *seclog.Logger
	Mailer        mailer.Sender
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
	BaseURL       string // for links in emails, e.g. "https://events.example.edu"
	Secure        bool   // Secure flag on the access cookie
	GoogleEnabled bool
}

func NewHandler(
	db *mongo.Database,
	sessions *auth.SessionManager,
	csrfProt *csrf.Protector,
	tm *tokens.Manager,
	guard *ratelimit.LoginGuard,
	sec *seclog.Logger,
	mail mailer.Sender,
	errLog *uierrors.ErrorLogger,
	baseURL string,
	secure bool,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         userstore.New(db),
		Logins:        loginstore.New(db),
		Sessions:      sessions,
		CSRF:          csrfProt,
		Tokens:        tm,
		Guard:         guard,
		Sec:           sec,
		Mailer:        mail,
		ErrLog:        errLog,
		Log:           logger,
		BaseURL:       baseURL,
		Secure:        secure,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type registerFormData struct {
	formutil.Base
	Name          string
	Username      string
	Email         string
	PasswordRules string
	GoogleEnabled bool
}

type loginFormData struct {
	formutil.Base
	Identifier    string
	ReturnTo      string
	ShowResend    bool // account exists but is not verified
	GoogleEnabled bool
}

type emailFormData struct {
	formutil.Base
	Email  string
	Action string // form target
}

type resetFormData struct {
	formutil.Base
	Token         string
	PasswordRules string
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// done finishes a successful POST: JSON clients get {message, redirect};
// browsers get a success flash and a redirect.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, msg, dest string) {
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]string{"message": msg, "redirect": dest})
		return
	}
	if msg != "" {
		h.Sessions.Flash(w, r, auth.FlashSuccess, msg)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// fail answers a rejected POST that has no field to attach the message to.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, msg, dest string) {
	if respond.WantsJSON(r) {
		respond.Error(w, status, msg)
		return
	}
	h.Sessions.Flash(w, r, auth.FlashError, msg)
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) link(path, token string) string {
	return h.BaseURL + path + token
}

// sendVerification mails a fresh verification link. Delivery failures are
// logged and not surfaced; the user can ask for another link.
func (h *Handler) sendVerification(ctx context.Context, u models.User) {
	tok, err := h.Tokens.GenerateVerificationToken(u)
	if err != nil {
		h.Log.Error("generate verification token", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		return
	}
	email := mailer.BuildVerificationEmail(u.Email, mailer.LinkEmailData{
		SiteName:  viewdata.SiteName(),
		Name:      u.Name,
		Link:      h.link("/auth/verify/", tok),
		ExpiresIn: "24 hours",
	})
	h.send(ctx, email, u)
}

func (h *Handler) sendPasswordReset(ctx context.Context, u models.User) {
	tok, err := h.Tokens.GeneratePasswordResetToken(u)
	if err != nil {
		h.Log.Error("generate reset token", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		return
	}
	email := mailer.BuildPasswordResetEmail(u.Email, mailer.LinkEmailData{
		SiteName:  viewdata.SiteName(),
		Name:      u.Name,
		Link:      h.link("/auth/reset/", tok),
		ExpiresIn: "1 hour",
	})
	h.send(ctx, email, u)
}

func (h *Handler) send(parent context.Context, e mailer.Email, u models.User) {
	if h.Mailer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, timeouts.Remote())
	defer cancel()
	if err := h.Mailer.Send(ctx, e); err != nil {
		h.Log.Warn("send email failed",
			zap.Error(err),
			zap.String("template", e.Template),
			zap.String("user_id", u.ID.Hex()))
	}
}

func minutesUntil(t time.Time) int {
	m := int(time.Until(t).Minutes()) + 1
	if m < 1 {
		m = 1
	}
	return m
}
