package identity

import (
	"testing"

	"github.com/helpmebudget/web/internal/fault"
)

func TestCookieRoundTrip(t *testing.T) {
	signer := NewCookieSigner("secret-1", false)

	cookie, err := signer.Issue(UserClaims{
		UserID:    "local-7",
		Email:     "jo@example.com",
		Name:      "Jo Budgets",
		AvatarURL: "https://cdn/avatar.png",
	})
	if err != nil {
		t.Fatalf("issuing cookie: %v", err)
	}

	if cookie.Name != UserDataCookie {
		t.Errorf("cookie name = %q", cookie.Name)
	}
	if !cookie.HttpOnly {
		t.Error("cookie must be httpOnly")
	}
	if cookie.MaxAge != 86400 {
		t.Errorf("max age = %d, want 86400", cookie.MaxAge)
	}

	claims, err := signer.Parse(cookie.Value)
	if err != nil {
		t.Fatalf("parsing cookie: %v", err)
	}
	if claims.UserID != "local-7" || claims.Email != "jo@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestCookieParse_RejectsForgedSignature(t *testing.T) {
	issuer := NewCookieSigner("secret-1", false)
	verifier := NewCookieSigner("secret-2", false)

	cookie, err := issuer.Issue(UserClaims{UserID: "local-7", Email: "jo@example.com"})
	if err != nil {
		t.Fatalf("issuing cookie: %v", err)
	}

	_, err = verifier.Parse(cookie.Value)
	if fault.KindOf(err) != fault.KindUnauthorized {
		t.Errorf("error = %v, want KindUnauthorized", err)
	}
}

func TestCookieParse_RejectsGarbage(t *testing.T) {
	signer := NewCookieSigner("secret-1", false)

	for _, value := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := signer.Parse(value); err == nil {
			t.Errorf("Parse(%q) should fail", value)
		}
	}
}

func TestCookieClear(t *testing.T) {
	signer := NewCookieSigner("secret-1", true)
	cookie := signer.Clear()

	if cookie.MaxAge != -1 {
		t.Errorf("clear cookie MaxAge = %d, want -1", cookie.MaxAge)
	}
	if !cookie.Secure {
		t.Error("secure signer must clear with Secure flag")
	}
}
