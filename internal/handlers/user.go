package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/server/internal/dto"
	"github.com/taskhub/server/internal/middleware"
	"github.com/taskhub/server/internal/response"
	"github.com/taskhub/server/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns all users, for assignee and member pickers.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	dtos := make([]dto.UserDTO, len(users))
	for i, u := range users {
		dtos[i] = dto.ToUserDTO(u)
	}
	response.OK(c, http.StatusOK, dtos)
}

// SearchUser finds a user by exact email match
func (h *UserHandler) SearchUser(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error(c, http.StatusBadRequest, "email query parameter is required")
		return
	}

	user, err := h.userService.SearchByEmail(email)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToUserDTO(*user))
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.userService.GetProfile(userID)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateProfile updates the authenticated user's display name.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(userID, req.Name)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteAccount deletes the authenticated user and everything they own.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.userService.DeleteAccount(userID); err != nil {
		h.respondUserError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Account deleted successfully")
}

func (h *UserHandler) respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNameTooShort):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}
