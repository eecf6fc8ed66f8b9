package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (*models.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, meta models.RequestMeta) (*models.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string, claims *models.JWTClaims, meta models.RequestMeta)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
	ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) error
}

// CookieSettings controls the attributes of the session cookies.
type CookieSettings struct {
	Secure        bool
	RefreshMaxAge time.Duration
}

type loginResponse struct {
	Success   bool            `json:"success"`
	User      models.UserInfo `json:"user"`
	CSRFToken string          `json:"csrfToken"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookies CookieSettings
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies CookieSettings) *AuthHandler {
	if cookies.RefreshMaxAge <= 0 {
		cookies.RefreshMaxAge = 7 * 24 * time.Hour
	}
	return &AuthHandler{service: svc, cookies: cookies}
}

// Login godoc
// @Summary Authenticate user
// @Description Checks credentials, sets the auth-token and refresh-token cookies and returns the CSRF token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} loginResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, middleware.AccessCookie, res.AccessToken, res.AccessTTL)
	h.setCookie(c, middleware.RefreshCookie, res.RefreshToken, h.cookies.RefreshMaxAge)
	response.Write(c, http.StatusOK, loginResponse{Success: true, User: res.User, CSRFToken: res.CSRFToken})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Issues a new auth-token cookie from the refresh-token cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} messageResponse
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	if token == "" {
		h.clearCookies(c)
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "sesión no encontrada"))
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), token, middleware.RequestMeta(c))
	if err != nil {
		if appErrors.FromError(err).Status < http.StatusInternalServerError {
			h.clearCookies(c)
		}
		response.Error(c, err)
		return
	}

	h.setCookie(c, middleware.AccessCookie, res.AccessToken, res.AccessTTL)
	response.Write(c, http.StatusOK, messageResponse{Success: true, Message: "sesión renovada"})
}

// Logout godoc
// @Summary Logout
// @Description Revokes the refresh token when present and clears both cookies. Always succeeds.
// @Tags Authentication
// @Produce json
// @Success 200 {object} messageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	h.service.Logout(c.Request.Context(), token, claimsFromContext(c), middleware.RequestMeta(c))
	h.clearCookies(c)
	response.Write(c, http.StatusOK, messageResponse{Success: true, Message: "sesión cerrada"})
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description Verifies the current password, stores the new one and ends every session of the user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Password payload"
// @Success 200 {object} messageResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentActor(c), req); err != nil {
		response.Error(c, err)
		return
	}
	h.clearCookies(c)
	response.Write(c, http.StatusOK, messageResponse{Success: true, Message: "contraseña actualizada, inicie sesión nuevamente"})
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge/time.Second), "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", "", h.cookies.Secure, true)
}
