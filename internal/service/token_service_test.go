package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims *models.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims(sub string, roles ...string) *models.Claims {
	return &models.Claims{
		Email: sub + "@example.com",
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "platform",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestTokenServiceValidate(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "platform"})

	claims, err := svc.Validate(signToken(t, "secret", jwt.SigningMethodHS256, validClaims("3", "HOST")))
	require.NoError(t, err)
	assert.Equal(t, "3", claims.UserID())
	assert.Equal(t, "3@example.com", claims.Email)
	assert.True(t, claims.HasRole(models.RoleHost))
	assert.False(t, claims.HasRole(models.RoleUser))
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "platform"})

	expired := validClaims("3")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := validClaims("3")
	wrongIssuer.Issuer = "elsewhere"

	noExpiry := validClaims("3")
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"wrong secret": signToken(t, "other", jwt.SigningMethodHS256, validClaims("3")),
		"wrong method": signToken(t, "secret", jwt.SigningMethodHS512, validClaims("3")),
		"expired":      signToken(t, "secret", jwt.SigningMethodHS256, expired),
		"issuer":       signToken(t, "secret", jwt.SigningMethodHS256, wrongIssuer),
		"no expiry":    signToken(t, "secret", jwt.SigningMethodHS256, noExpiry),
		"no subject":   signToken(t, "secret", jwt.SigningMethodHS256, validClaims("")),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestClaimsHasRoleAcceptsSpringPrefix(t *testing.T) {
	claims := validClaims("3", "ROLE_host")
	assert.True(t, claims.HasRole(models.RoleHost))
}
