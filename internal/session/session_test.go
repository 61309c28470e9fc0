package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestInspect(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.RegisteredClaims{
		Subject:   "neo",
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	c := Inspect(tok)
	if c.Opaque || c.Subject != "neo" {
		t.Fatalf("Inspect() = %+v", c)
	}
	if !c.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v", c.ExpiresAt)
	}
	if c.Expired(now) {
		t.Error("live token reported expired")
	}
	if !c.Expired(now.Add(time.Hour)) {
		t.Error("token should be expired at exp")
	}
}

func TestInspectExpiredTokenStillDecodes(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-48 * time.Hour)
	c := Inspect(signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(past)}))
	if c.Opaque {
		t.Fatal("expired JWT treated as opaque")
	}
	if !c.Expired(time.Now()) {
		t.Error("Expired() = false for a token two days old")
	}
}

func TestOpaqueTokens(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"", "opaque-session-id", "a.b.c"} {
		c := Inspect(tok)
		if !c.Opaque {
			t.Errorf("Inspect(%q) not opaque: %+v", tok, c)
		}
		if c.Expired(time.Now()) {
			t.Errorf("opaque %q reported expired", tok)
		}
	}

	noExp := Inspect(signed(t, jwt.RegisteredClaims{Subject: "x"}))
	if noExp.Opaque || noExp.Expired(time.Now().Add(100*365*24*time.Hour)) {
		t.Errorf("token without exp = %+v", noExp)
	}
}
