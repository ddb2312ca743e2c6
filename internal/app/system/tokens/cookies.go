package tokens

import (
	"net/http"
	"time"
)

// CookieName holds the access token.
const CookieName = "token"

// AccessCookie builds the httpOnly session cookie for token.
// secure should be true in production.
func AccessCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(AccessTTL / time.Second),
		Expires:  time.Now().Add(AccessTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearAccessCookie expires the session cookie.
func ClearAccessCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
