package identity

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/helpmebudget/web/internal/fault"
)

// UserDataCookie is the legacy first-party cookie carrying a previously
// resolved identity. Trusting it skips the per-request re-validation against
// the auth provider, so it is only read on the admin passthrough routes that
// predate the resolver; new code should use Resolver.ResolveUserID.
const UserDataCookie = "user_data"

const userDataMaxAge = 24 * time.Hour

// UserClaims is the payload embedded in the legacy cookie.
type UserClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

// CookieSigner issues and parses the signed legacy cookie.
type CookieSigner struct {
	secret []byte
	secure bool
}

// NewCookieSigner creates a signer. secure controls the cookie's Secure flag.
func NewCookieSigner(secret string, secure bool) *CookieSigner {
	return &CookieSigner{secret: []byte(secret), secure: secure}
}

// Issue builds the signed user_data cookie for a resolved identity.
func (s *CookieSigner) Issue(claims UserClaims) (*http.Cookie, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(userDataMaxAge)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     UserDataCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(userDataMaxAge.Seconds()),
	}, nil
}

// Parse validates the cookie's signature and expiry and returns its claims.
func (s *CookieSigner) Parse(value string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fault.Unauthorized("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fault.Unauthorized("invalid user_data cookie")
	}
	if claims.UserID == "" {
		return nil, fault.Unauthorized("invalid user_data cookie")
	}
	return claims, nil
}

// Clear returns a cookie that expires the legacy cookie in the browser.
func (s *CookieSigner) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     UserDataCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
