package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/server/internal/constants"
	"github.com/taskhub/server/internal/dto"
	"github.com/taskhub/server/internal/metrics"
	"github.com/taskhub/server/internal/middleware"
	"github.com/taskhub/server/internal/response"
	"github.com/taskhub/server/internal/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	metrics      *metrics.Metrics
	cookieMaxAge int
	secureCookie bool
}

func NewAuthHandler(authService *services.AuthService, m *metrics.Metrics, cookieMaxAge int, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		metrics:      m,
		cookieMaxAge: cookieMaxAge,
		secureCookie: secureCookie,
	}
}

type authPayload struct {
	User  dto.UserDTO `json:"user"`
	Token string      `json:"token"`
}

// Register creates a new account and signs the caller in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.authService.Register(services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.metrics.RecordAuthEvent("register")
	h.setAuthCookie(c, token)
	response.OK(c, http.StatusCreated, authPayload{User: dto.ToUserDTO(*user), Token: token})
}

// Login verifies credentials and signs the caller in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.metrics.RecordAuthEvent("login_failed")
		h.respondAuthError(c, err)
		return
	}

	h.metrics.RecordAuthEvent("login_success")
	h.setAuthCookie(c, token)
	response.OK(c, http.StatusOK, authPayload{User: dto.ToUserDTO(*user), Token: token})
}

// Logout clears the auth cookie. The bearer token stays valid until expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.metrics.RecordAuthEvent("logout")
	c.SetCookie(constants.TokenCookieName, "", -1, "/", "", h.secureCookie, true)
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToUserDTO(*user))
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(constants.TokenCookieName, token, h.cookieMaxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserExists):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrNameTooShort):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}
