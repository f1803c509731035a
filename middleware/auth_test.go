package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"partner-onboarding-api/config"
	"partner-onboarding-api/models"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("driver-123", SubjectDriver, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "driver-123" || claims.SubjectType != SubjectDriver {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAdminTokenCarriesRole(t *testing.T) {
	token, err := GenerateToken("admin-1", SubjectAdmin, models.RoleSuperAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != models.RoleSuperAdmin {
		t.Errorf("role = %q, want super_admin", claims.Role)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := Claims{
		SubjectID:   "driver-123",
		SubjectType: SubjectDriver,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.JWTSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(tokenStr); err == nil {
		t.Error("expired token parsed successfully")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateToken("driver-123", SubjectDriver, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token + "x"); err == nil {
		t.Error("tampered token parsed successfully")
	}
}
