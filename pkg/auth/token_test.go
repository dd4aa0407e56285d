package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                "secret",
		Issuer:                "etfuel",
		IDTokenTTLMinutes:     30,
		CustomTokenTTLMinutes: 5,
		ResetTokenTTLMinutes:  30,
	}
}

func TestMintAndParseIDToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	uid := uuid.New()

	payload := IDTokenPayload{
		UID:   uid,
		Email: "ops@etfuel.dev",
		Role:  enums.RoleStation,
	}

	token, err := MintIDToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint id token: %v", err)
	}

	claims, err := ParseIDToken(cfg, token)
	if err != nil {
		t.Fatalf("parse id token: %v", err)
	}

	if claims.UID != uid {
		t.Fatalf("expected uid %s, got %s", uid, claims.UID)
	}
	if claims.Email != "ops@etfuel.dev" {
		t.Fatalf("email not preserved, got %q", claims.Email)
	}
	if claims.Role != enums.RoleStation {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}

	exp := now.Add(cfg.IDTokenTTL())
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseIDTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintIDToken(cfg, time.Now(), IDTokenPayload{UID: uuid.New(), Role: enums.RoleUnion})
	if err != nil {
		t.Fatalf("mint id token: %v", err)
	}

	if _, err := ParseIDToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseIDTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().Add(-time.Hour)
	token, err := MintIDToken(cfg, now, IDTokenPayload{UID: uuid.New(), Role: enums.RoleDriver})
	if err != nil {
		t.Fatalf("mint id token: %v", err)
	}

	_, err = ParseIDToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseIDTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("allow-expired parse failed: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected jti on expired token")
	}
}

func TestMintIDTokenInvalidRole(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintIDToken(cfg, time.Now(), IDTokenPayload{UID: uuid.New(), Role: ""}); err == nil {
		t.Fatal("expected invalid role error")
	}
}

func TestCustomTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	uid := uuid.New()

	token, err := MintCustomToken(cfg, time.Now(), uid, enums.RoleAdmin)
	if err != nil {
		t.Fatalf("mint custom token: %v", err)
	}

	claims, err := ParseCustomToken(cfg, token)
	if err != nil {
		t.Fatalf("parse custom token: %v", err)
	}
	if claims.UID != uid || claims.Role != enums.RoleAdmin {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	// A custom token must not be usable as a session token.
	if _, err := ParseIDToken(cfg, token); err == nil {
		t.Fatal("expected exchange token to be rejected as session token")
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	uid := uuid.New()

	token, err := MintResetToken(cfg, time.Now(), uid, "driver@etfuel.dev")
	if err != nil {
		t.Fatalf("mint reset token: %v", err)
	}

	claims, err := ParseResetToken(cfg, token)
	if err != nil {
		t.Fatalf("parse reset token: %v", err)
	}
	if claims.UID != uid || claims.Email != "driver@etfuel.dev" {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	if _, err := ParseCustomToken(cfg, token); err == nil {
		t.Fatal("expected reset token to be rejected as exchange token")
	}
}
