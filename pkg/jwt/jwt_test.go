package jwt

import (
	"testing"
	"time"

	"nest/backend/config"
)

func testManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 30 * 24 * time.Hour,
	})
}

func TestAccessToken_RoundTrip(t *testing.T) {
	mgr := testManager()

	token, err := mgr.GenerateAccessToken("user-1", "Admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user_id user-1, got %q", claims.UserID)
	}
	if claims.Role != "Admin" {
		t.Errorf("expected role Admin, got %q", claims.Role)
	}
	if claims.TokenType != "access" {
		t.Errorf("expected token type access, got %q", claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("expected a jti claim")
	}
}

func TestRefreshToken_RememberMe(t *testing.T) {
	mgr := testManager()

	short, err := mgr.GenerateRefreshToken("user-1", "User", false)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}
	long, err := mgr.GenerateRefreshToken("user-1", "User", true)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	shortClaims, err := mgr.ParseToken(short)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	longClaims, err := mgr.ParseToken(long)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if shortClaims.TokenType != "refresh" || longClaims.TokenType != "refresh" {
		t.Error("expected refresh token type")
	}
	if shortClaims.RememberMe || !longClaims.RememberMe {
		t.Error("remember_me flag not carried in claims")
	}
	if !longClaims.ExpiresAt.Time.After(shortClaims.ExpiresAt.Time) {
		t.Error("remember-me token should outlive the default refresh token")
	}
}

func TestParseToken_Expired(t *testing.T) {
	mgr := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: -time.Minute,
	})

	token, err := mgr.GenerateAccessToken("user-1", "User")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if _, err := mgr.ParseToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := testManager().GenerateAccessToken("user-1", "User")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	other := NewManager(&config.AuthConfig{
		JWTSecret:      "a-different-secret",
		AccessTokenTTL: 15 * time.Minute,
	})
	if _, err := other.ParseToken(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := testManager().ParseToken("not-a-token"); err == nil {
		t.Error("expected malformed token to be rejected")
	}
}
