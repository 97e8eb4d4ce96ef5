package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/wheeltracker/src/config"
)

func testConfig() {
	config.Cfg = &config.AppConfig{
		AccessTokenExpiry: time.Hour,
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	testConfig()
	svc := NewAuthService("test-secret-at-least-32-characters!!")

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestAuthService_RejectsWrongSecret(t *testing.T) {
	testConfig()
	issuer := NewAuthService("test-secret-at-least-32-characters!!")
	verifier := NewAuthService("a-completely-different-secret-value!")

	token, err := issuer.GenerateToken("42")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsExpiredToken(t *testing.T) {
	config.Cfg = &config.AppConfig{AccessTokenExpiry: -time.Minute}
	svc := NewAuthService("test-secret-at-least-32-characters!!")

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsGarbage(t *testing.T) {
	testConfig()
	svc := NewAuthService("test-secret-at-least-32-characters!!")

	_, err := svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestAuthService_RefreshTokensAreUnique(t *testing.T) {
	svc := NewAuthService("test-secret-at-least-32-characters!!")

	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
