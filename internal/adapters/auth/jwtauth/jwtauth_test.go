package jwtauth

import (
	"context"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute, time.Hour)
	verifier := NewVerifier("test-secret")

	token, err := issuer.IssueAccess("u1", "alice@crm.io", "MANAGER", "T1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "alice@crm.io" || claims.Role != "MANAGER" || claims.TeamID != "T1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret-a", time.Minute, time.Hour)
	verifier := NewVerifier("secret-b")

	token, _ := issuer.IssueAccess("u1", "a@b.co", "SALES", "")
	if _, err := verifier.Verify(context.Background(), token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	issuer := NewIssuer("s", time.Minute, time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _ := issuer.IssueAccess("u1", "a@b.co", "SALES", "")
	if _, err := NewVerifier("s").Verify(context.Background(), token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerify_RejectsRefreshAsAccess(t *testing.T) {
	issuer := NewIssuer("s", time.Minute, time.Hour)

	refresh, _, err := issuer.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := NewVerifier("s").Verify(context.Background(), refresh); err == nil {
		t.Fatal("refresh token must not authorize requests")
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	issuer := NewIssuer("s", time.Minute, time.Hour)

	refresh, expires, err := issuer.IssueRefresh("u7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatal("expiry should be in the future")
	}

	uid, err := issuer.VerifyRefresh(refresh)
	if err != nil || uid != "u7" {
		t.Fatalf("verify refresh: uid=%q err=%v", uid, err)
	}

	// un access no pasa como refresh
	access, _ := issuer.IssueAccess("u7", "x@y.z", "SALES", "")
	if _, err := issuer.VerifyRefresh(access); err == nil {
		t.Fatal("access token must not pass as refresh")
	}
}
