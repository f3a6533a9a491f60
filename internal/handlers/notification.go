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

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications returns the caller's notifications, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	notifications, err := h.notificationService.ListNotifications(userID)
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToNotificationDTOs(notifications))
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.notificationService.MarkRead(id, userID); err != nil {
		h.respondNotificationError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Notification marked as read")
}

// MarkAllRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		h.respondNotificationError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "All notifications marked as read")
}

// DeleteNotification deletes one notification
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.notificationService.DeleteNotification(id, userID); err != nil {
		h.respondNotificationError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Notification deleted")
}

// DeleteAllNotifications deletes all of the caller's notifications
func (h *NotificationHandler) DeleteAllNotifications(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.notificationService.DeleteAllNotifications(userID); err != nil {
		h.respondNotificationError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "All notifications deleted")
}

func (h *NotificationHandler) respondNotificationError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotificationNotFound) {
		response.Error(c, http.StatusNotFound, err.Error())
		return
	}
	response.Error(c, http.StatusInternalServerError, "Internal server error")
}
