package service

import (
	"testing"
	"time"

	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "unit-test-secret-0123456789abcdef"

func TestGenerateAndParseUserJWT(t *testing.T) {
	cfg := config.JWTConfig{SecretKey: testJWTSecret, ExpireHours: 2}
	user := &models.User{ID: 9, Email: "demo@example.com", TokenVersion: 3}

	token, expiresAt, err := GenerateUserJWT(cfg, user)
	if err != nil {
		t.Fatalf("GenerateUserJWT failed: %v", err)
	}
	if token == "" {
		t.Fatal("token is empty")
	}
	wantExpiry := time.Now().Add(2 * time.Hour)
	if diff := expiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiresAt = %v, want ~%v", expiresAt, wantExpiry)
	}

	claims, err := ParseUserJWT(testJWTSecret, token)
	if err != nil {
		t.Fatalf("ParseUserJWT failed: %v", err)
	}
	if claims.UserID != 9 || claims.Email != "demo@example.com" || claims.TokenVersion != 3 {
		t.Errorf("claims = %+v, want user 9 / demo@example.com / version 3", claims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Error("registered claims missing issued/expires")
	}
}

func TestGenerateUserJWTDefaultExpiry(t *testing.T) {
	cfg := config.JWTConfig{SecretKey: testJWTSecret}
	user := &models.User{ID: 1, Email: "a@example.com"}

	_, expiresAt, err := GenerateUserJWT(cfg, user)
	if err != nil {
		t.Fatalf("GenerateUserJWT failed: %v", err)
	}
	wantExpiry := time.Now().Add(24 * time.Hour)
	if diff := expiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiresAt = %v, want default 24h", expiresAt)
	}
}

func TestParseUserJWTRejectsWrongSecret(t *testing.T) {
	cfg := config.JWTConfig{SecretKey: testJWTSecret, ExpireHours: 1}
	token, _, err := GenerateUserJWT(cfg, &models.User{ID: 2, Email: "b@example.com"})
	if err != nil {
		t.Fatalf("GenerateUserJWT failed: %v", err)
	}
	if _, err := ParseUserJWT("another-secret-entirely", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseUserJWTRejectsWrongMethod(t *testing.T) {
	claims := UserJWTClaims{
		UserID: 5,
		Email:  "c@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign HS512 token failed: %v", err)
	}
	if _, err := ParseUserJWT(testJWTSecret, token); err == nil {
		t.Error("expected error for HS512 token")
	}
}

func TestParseUserJWTRejectsExpired(t *testing.T) {
	claims := UserJWTClaims{
		UserID: 6,
		Email:  "d@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign expired token failed: %v", err)
	}
	if _, err := ParseUserJWT(testJWTSecret, token); err == nil {
		t.Error("expected error for expired token")
	}
}
