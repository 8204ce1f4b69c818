package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/docgen/internal/infrastructure/auth"
	"github.com/erp/docgen/internal/infrastructure/logger"
	"github.com/erp/docgen/internal/interfaces/http/dto"
	"github.com/erp/docgen/internal/interfaces/http/middleware"
)

// CredentialVerifier checks a username and password
type CredentialVerifier interface {
	Verify(username, password string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	credentials CredentialVerifier
	jwt         *auth.JWTService
	revocations auth.RevocationList
}

// NewAuthHandler creates a new auth handler. revocations may be nil, in
// which case logout is acknowledged but tokens stay valid until expiry.
func NewAuthHandler(credentials CredentialVerifier, jwt *auth.JWTService, revocations auth.RevocationList) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		jwt:         jwt,
		revocations: revocations,
	}
}

// LoginRequest holds service account credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=200"`
}

// Login godoc
// @Summary      Service account login
// @Description  Exchange service account credentials for an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=auth.AccessToken}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	log := logger.FromContext(c.Request.Context())
	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		log.Warn("login failed", zap.String("username", req.Username), zap.String("client_ip", c.ClientIP()))
		h.Unauthorized(c, dto.ErrCodeInvalidCredentials, "Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateAccessToken(req.Username)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	log.Info("login succeeded", zap.String("username", req.Username))
	h.Success(c, token)
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the access token used for this request
// @Tags         auth
// @Produce      json
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	if h.revocations != nil && claims.ID != "" {
		if err := h.revocations.Revoke(c.Request.Context(), claims.ID, claims.GetRemainingTTL()); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}
