package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erp/docgen/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func TestNewJWTService(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s", Issuer: "i"})
	assert.Equal(t, time.Hour, svc.GetAccessTokenExpiration())
	assert.Equal(t, "i", svc.issuer)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateAccessToken("billing")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "billing", claims.Username)
	assert.Equal(t, "billing", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.GetRemainingTTL(), 14*time.Minute)
}

func TestGenerateAccessToken_UniqueIDs(t *testing.T) {
	svc := newTestJWTService()
	a, err := svc.GenerateAccessToken("billing")
	require.NoError(t, err)
	b, err := svc.GenerateAccessToken("billing")
	require.NoError(t, err)

	ca, _ := svc.ValidateAccessToken(a.Token)
	cb, _ := svc.ValidateAccessToken(b.Token)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestGenerateAccessToken_MissingUsername(t *testing.T) {
	_, err := newTestJWTService().GenerateAccessToken("")
	assert.ErrorIs(t, err, ErrMissingUsername)
}

func TestValidateAccessToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "test-issuer"})
		token, err := other.GenerateAccessToken("billing")
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		token, err := other.GenerateAccessToken("billing")
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.GenerateAccessToken("billing")
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestJWTService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, err := future.GenerateAccessToken("billing")
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token.Token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Username: "billing",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing username", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrMissingUsername)
	})
}

func TestCredentialStore(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	store, err := NewCredentialStore([]string{"billing:" + string(hash)})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "billing", "s3cret", false},
		{"wrong password", "billing", "nope", true},
		{"unknown user", "payroll", "s3cret", true},
		{"empty password", "billing", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Verify(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCredentialStore_InvalidEntries(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	tests := []struct {
		name    string
		entries []string
	}{
		{"missing separator", []string{"billing"}},
		{"empty hash", []string{"billing:"}},
		{"not bcrypt", []string{"billing:plaintext"}},
		{"duplicate", []string{"billing:" + hash, "billing:" + hash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCredentialStore(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestInMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	list := NewInMemoryRevocationList()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-2", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-3", 0))
	revoked, _ = list.IsRevoked(ctx, "jti-3")
	assert.False(t, revoked)
}

func TestRedisRevocationList_Key(t *testing.T) {
	list := NewRedisRevocationList(nil)
	assert.Equal(t, "docgen:token:revoked:abc", list.key("abc"))
}
