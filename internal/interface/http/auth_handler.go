package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/response"
	"github.com/daylog-hq/daylog/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

// Register creates an account and logs the new user straight in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			response.Error(c, http.StatusBadRequest, "username already taken", map[string]string{"username": "already taken"})
			return
		}
		h.Logger.WithError(err).Error("register failed")
		response.Error(c, http.StatusInternalServerError, "registration failed", nil)
		return
	}

	pair, err := h.Svc.IssueTokens(c.Request.Context(), u)
	if err != nil {
		h.Logger.WithError(err).Error("token issue failed")
		response.Error(c, http.StatusInternalServerError, "registration failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, u, "registered")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		h.Logger.WithError(err).Error("login failed")
		response.Error(c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, u, "login successful")
}

// Refresh rotates the cookie pair using the refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie("refresh_token")
	if err != nil || token == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	u, pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
			return
		}
		h.Logger.WithError(err).Error("token refresh failed")
		response.Error(c, http.StatusInternalServerError, "token refresh failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, u, "token refreshed")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if uid, ok := c.Get("userID"); ok {
		if id, ok := uid.(int64); ok {
			h.Svc.Logout(c.Request.Context(), id)
		}
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}

// CurrentUser returns the session's user.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	id := c.GetInt64("userID")
	u, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	response.Success(c, http.StatusOK, u, "")
}
