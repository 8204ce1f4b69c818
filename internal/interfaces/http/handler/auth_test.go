package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erp/docgen/internal/infrastructure/auth"
	"github.com/erp/docgen/internal/infrastructure/config"
	"github.com/erp/docgen/internal/interfaces/http/dto"
	"github.com/erp/docgen/internal/interfaces/http/middleware"
)

type authFixture struct {
	router      *gin.Engine
	jwt         *auth.JWTService
	revocations *auth.InMemoryRevocationList
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	credentials, err := auth.NewCredentialStore([]string{"billing:" + string(hash)})
	require.NoError(t, err)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-characters",
		AccessTokenExpiration: time.Hour,
		Issuer:                "docgen-test",
	})
	revocations := auth.NewInMemoryRevocationList()
	h := NewAuthHandler(credentials, jwtService, revocations)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:  jwtService,
		Revocations: revocations,
	}), h.Logout)
	return &authFixture{router: r, jwt: jwtService, revocations: revocations}
}

func TestAuthHandler_Login(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"valid credentials", `{"username":"billing","password":"s3cret"}`, http.StatusOK, ""},
		{"wrong password", `{"username":"billing","password":"nope"}`, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"unknown user", `{"username":"payroll","password":"s3cret"}`, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"missing password", `{"username":"billing"}`, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(f.router, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decode(t, w)
			if tt.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				return
			}
			data := resp.Data.(map[string]any)
			token, _ := data["access_token"].(string)
			require.NotEmpty(t, token)
			claims, err := f.jwt.ValidateAccessToken(token)
			require.NoError(t, err)
			assert.Equal(t, "billing", claims.Username)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)
	token, err := f.jwt.GenerateAccessToken("billing")
	require.NoError(t, err)

	logout := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(""))
		req.Header.Set("Authorization", "Bearer "+token.Token)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	w := logout()
	assert.Equal(t, http.StatusNoContent, w.Code)

	claims, err := f.jwt.ValidateAccessToken(token.Token)
	require.NoError(t, err)
	revoked, err := f.revocations.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	w = logout()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decode(t, w).Error.Code)
}

func TestAuthHandler_Logout_WithoutToken(t *testing.T) {
	f := newAuthFixture(t)
	w := perform(f.router, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
