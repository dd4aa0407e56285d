package security

import (
	"errors"
	"testing"

	"github.com/etfuel/etfuel-backend/pkg/config"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!", config.PasswordConfig{BcryptCost: 4})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "Secret123!" {
		t.Fatalf("hash must not equal the plaintext")
	}

	ok, err := VerifyPassword("Secret123!", hash)
	if err != nil {
		t.Fatalf("verify password: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching password to verify")
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("verify mismatched password: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", config.PasswordConfig{}); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestVerifyPasswordNoHashConfigured(t *testing.T) {
	_, err := VerifyPassword("anything", "")
	if !errors.Is(err, ErrNoHashConfigured) {
		t.Fatalf("expected ErrNoHashConfigured, got %v", err)
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	if err := CheckPasswordStrength("Str0ng!pass"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}

	weak := []string{"Sh0rt!a", "alllower1!", "ALLUPPER1!", "NoDigits!!", "NoSpecial11"}
	for _, password := range weak {
		if err := CheckPasswordStrength(password); err == nil {
			t.Fatalf("expected %q to be rejected", password)
		}
	}
}

func TestGenerateTempPassword(t *testing.T) {
	password, err := GenerateTempPassword(16)
	if err != nil {
		t.Fatalf("generate temp password: %v", err)
	}
	if len(password) != 16 {
		t.Fatalf("expected 16 characters, got %d", len(password))
	}

	if _, err := GenerateTempPassword(0); err == nil {
		t.Fatalf("expected error for non-positive length")
	}
}
