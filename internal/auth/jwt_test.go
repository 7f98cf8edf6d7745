package auth

import (
	"testing"

	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/constant"
)

// Generate tokens and verify them to ensure VerifyJwtToken round-trips the
// payload and token type.
func TestJWT(t *testing.T) {
	cfg := config.AuthConfig{JWT_SECRET: "test-secret"}

	jwtService := NewJwt(cfg, nil)
	refreshToken, accessToken, err := jwtService.GenerateRefreshAndAccessToken(JWTPayload{
		ID:       "id1234",
		Username: "ana",
		Email:    "ana@example.com",
		Rol:      constant.RoleAnalista,
	})
	if err != nil {
		t.Fatalf("An error occurred during refresh and access token generation. Error: %v", err)
	}

	refreshClaims, err := jwtService.VerifyJwtToken(*refreshToken)
	if err != nil {
		t.Fatalf("An error occurred during refresh token verification. Error: %v", err)
	}
	if refreshClaims.Type != constant.JWT_TYPE_REFRESH {
		t.Errorf("refresh token type = %q, want %q", refreshClaims.Type, constant.JWT_TYPE_REFRESH)
	}

	accessClaims, err := jwtService.VerifyJwtToken(*accessToken)
	if err != nil {
		t.Fatalf("An error occurred during access token verification. Error: %v", err)
	}
	if accessClaims.Type != constant.JWT_TYPE_ACCESS {
		t.Errorf("access token type = %q, want %q", accessClaims.Type, constant.JWT_TYPE_ACCESS)
	}

	if accessClaims.User.Username != "ana" || accessClaims.User.Rol != constant.RoleAnalista {
		t.Errorf("unexpected payload round-trip: %+v", accessClaims.User)
	}
}

func TestVerifyJwtTokenRejectsGarbage(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)

	if _, err := jwtService.VerifyJwtToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}

	other := NewJwt(config.AuthConfig{JWT_SECRET: "other-secret"}, nil)
	_, token, err := other.GenerateRefreshAndAccessToken(JWTPayload{ID: "x"})
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	if _, err := jwtService.VerifyJwtToken(*token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}
