package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secreta123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "Secreta123" {
		t.Fatal("hash must not equal the plaintext password")
	}

	ok, err := VerifyPassword("Secreta123", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("expected matching password to verify")
	}

	ok, err = VerifyPassword("otra", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if ok {
		t.Error("expected wrong password to fail verification")
	}
}

func TestValidPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"strong", "Secreta123", true},
		{"too short", "Ab1", false},
		{"no uppercase", "secreta123", false},
		{"no lowercase", "SECRETA123", false},
		{"no digit", "SecretaAbc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPasswordStrength(tt.password); got != tt.want {
				t.Errorf("ValidPasswordStrength(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}
