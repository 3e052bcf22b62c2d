package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateToken(t *testing.T) {
	userID := primitive.NewObjectID()

	tok, err := GenerateAccessToken(userID, "a@example.com", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if tok.TokenType != "Bearer" {
		t.Errorf("TokenType = %q", tok.TokenType)
	}

	claims, err := ValidateToken(tok.Token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != userID || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	userID := primitive.NewObjectID()
	good, _ := GenerateAccessToken(userID, "a@example.com", "secret", time.Hour)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: userID}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{}).SignedString([]byte("secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: userID}).SignedString([]byte("secret"))

	otherHMAC, _ := jwt.NewWithClaims(jwt.SigningMethodHS384, &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good.Token, "other"},
		{"expired", expired, "secret"},
		{"alg none", none, "secret"},
		{"garbage", "not.a.jwt", "secret"},
		{"missing user id", noUser, "secret"},
		{"no expiry", noExpiry, "secret"},
		{"hs384", otherHMAC, "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token, tt.secret); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}
