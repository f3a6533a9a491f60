package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskhub/server/internal/models"
)

func seedNotification(t *testing.T, env *testEnv, userID uint64, message string) *models.Notification {
	t.Helper()

	n := &models.Notification{
		UserID:  userID,
		Message: message,
		Type:    models.NotificationTaskAssigned,
	}
	require.NoError(t, env.notificationRepo.Create(n))
	return n
}

func TestNotificationService_ListNewestFirst(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "user@example.com", "User")

	seedNotification(t, env, user.ID, "first")
	seedNotification(t, env, user.ID, "second")

	notifications, err := env.notifications.ListNotifications(user.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.Equal(t, "second", notifications[0].Message)
}

func TestNotificationService_OwnerScoping(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner@example.com", "Owner")
	other := env.createUser(t, "other@example.com", "Other")

	n := seedNotification(t, env, owner.ID, "yours")

	// Another user cannot read, mark, or delete it.
	err := env.notifications.MarkRead(n.ID, other.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	err = env.notifications.DeleteNotification(n.ID, other.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	list, err := env.notifications.ListNotifications(other.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	// The owner can.
	require.NoError(t, env.notifications.MarkRead(n.ID, owner.ID))

	list, err = env.notifications.ListNotifications(owner.ID)
	require.NoError(t, err)
	require.True(t, list[0].Read)
}

func TestNotificationService_MarkAllAndDeleteAll(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner@example.com", "Owner")
	other := env.createUser(t, "other@example.com", "Other")

	seedNotification(t, env, owner.ID, "a")
	seedNotification(t, env, owner.ID, "b")
	seedNotification(t, env, other.ID, "not yours")

	require.NoError(t, env.notifications.MarkAllRead(owner.ID))
	list, err := env.notifications.ListNotifications(owner.ID)
	require.NoError(t, err)
	for _, n := range list {
		require.True(t, n.Read)
	}

	require.NoError(t, env.notifications.DeleteAllNotifications(owner.ID))
	list, err = env.notifications.ListNotifications(owner.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	// The other user's notifications are untouched.
	otherList, err := env.notifications.ListNotifications(other.ID)
	require.NoError(t, err)
	require.Len(t, otherList, 1)
	require.False(t, otherList[0].Read)
}
