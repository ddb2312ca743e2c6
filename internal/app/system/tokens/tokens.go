// Package tokens issues and verifies the portal's signed JWTs.
//
// Three token types exist: "access" (the session cookie), "verification"
// (email confirmation links) and "password_reset". All are HS256 with issuer
// and audience claims. Revoked tokens are kept on a Blacklist until they
// would have expired anyway.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token types.
const (
	TypeAccess        = "access"
	TypeVerification  = "verification"
	TypePasswordReset = "password_reset"
)

const (
	Issuer   = "event-management-portal"
	Audience = "event-portal-users"
)

// Default lifetimes.
const (
	AccessTTL        = 7 * 24 * time.Hour
	VerificationTTL  = 24 * time.Hour
	PasswordResetTTL = time.Hour
)

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenBlacklisted  = errors.New("token has been revoked")
	ErrTokenTypeMismatch = errors.New("token type mismatch")
)

// Claims is the payload of every portal token. Role is set on access tokens only.
type Claims struct {
	UserID string `json:"id"`
	Type   string `json:"type"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens. It is safe for concurrent use.
type Manager struct {
	secret    []byte
	blacklist *Blacklist
	now       func() time.Time
}

// NewManager signs with secret and consults blacklist on verify.
func NewManager(secret string, blacklist *Blacklist) *Manager {
	return &Manager{
		secret:    []byte(secret),
		blacklist: blacklist,
		now:       time.Now,
	}
}

// GenerateAccessToken returns a session token for u.
func (m *Manager) GenerateAccessToken(u models.User) (string, error) {
	return m.sign(u.ID.Hex(), TypeAccess, u.Role, AccessTTL)
}

// GenerateVerificationToken returns a single-purpose email verification token.
func (m *Manager) GenerateVerificationToken(u models.User) (string, error) {
	return m.sign(u.ID.Hex(), TypeVerification, "", VerificationTTL)
}

// GeneratePasswordResetToken returns a single-purpose password reset token.
func (m *Manager) GeneratePasswordResetToken(u models.User) (string, error) {
	return m.sign(u.ID.Hex(), TypePasswordReset, "", PasswordResetTTL)
}

func (m *Manager) sign(id, typ, role string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: id,
		Type:   typ,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return s, nil
}

func (m *Manager) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return m.secret, nil
}

// VerifyToken checks token and returns its claims. When expectedType is
// non-empty the token's type must match it.
//
// Tokens issued before issuer and audience claims were added carry neither;
// they are accepted on signature and expiry alone. A token that carries
// either claim with a wrong value is rejected.
func (m *Manager) VerifyToken(ctx context.Context, token, expectedType string) (*Claims, error) {
	if m.blacklist != nil {
		revoked, err := m.blacklist.Contains(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("check blacklist: %w", err)
		}
		if revoked {
			return nil, ErrTokenBlacklisted
		}
	}

	claims, err := m.parse(token,
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
	)
	if err != nil && (errors.Is(err, jwt.ErrTokenRequiredClaimMissing) ||
		errors.Is(err, jwt.ErrTokenInvalidIssuer) ||
		errors.Is(err, jwt.ErrTokenInvalidAudience)) {
		legacy, lerr := m.parse(token)
		if lerr == nil && legacy.Issuer == "" && len(legacy.Audience) == 0 {
			claims, err = legacy, nil
		}
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject id", ErrTokenInvalid)
	}
	if expectedType != "" && claims.Type != expectedType {
		return nil, ErrTokenTypeMismatch
	}
	return claims, nil
}

func (m *Manager) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, m.keyFunc, opts...); err != nil {
		return nil, err
	}
	return claims, nil
}

// BlacklistToken revokes token until its expiry. The signature is not
// checked; a token that is already expired or unreadable needs no entry.
func (m *Manager) BlacklistToken(ctx context.Context, token string) error {
	if m.blacklist == nil || token == "" {
		return nil
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	return m.blacklist.Add(ctx, token, claims.ExpiresAt.Time.Sub(m.now()))
}
