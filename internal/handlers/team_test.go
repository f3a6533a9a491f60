package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskhub/server/internal/dto"
)

func TestTeamEndpoints_CreateAndAccess(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, creatorTok := env.registerUser(t, "creator@example.com", "Creator")
	member, memberTok := env.registerUser(t, "member@example.com", "Member")
	_, outsiderTok := env.registerUser(t, "outsider@example.com", "Outsider")

	w, envelope := env.do(t, http.MethodPost, "/api/teams", creatorTok, map[string]interface{}{
		"name":       "platform",
		"member_ids": []uint64{member.ID},
	})
	mustStatus(t, w, http.StatusCreated)

	var team dto.TeamDTO
	dataAs(t, envelope, &team)
	require.Len(t, team.Members, 2)

	// Members can read the team, outsiders cannot.
	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), memberTok, nil)
	mustStatus(t, w, http.StatusOK)

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), outsiderTok, nil)
	mustStatus(t, w, http.StatusForbidden)

	// Outsiders do not see the team in their list either.
	w, envelope = env.do(t, http.MethodGet, "/api/teams", outsiderTok, nil)
	mustStatus(t, w, http.StatusOK)
	var teams []dto.TeamDTO
	dataAs(t, envelope, &teams)
	require.Empty(t, teams)
}

func TestTeamEndpoints_MemberManagement(t *testing.T) {
	env := setupHandlerTestEnv(t)
	creator, creatorTok := env.registerUser(t, "creator@example.com", "Creator")
	member, memberTok := env.registerUser(t, "member@example.com", "Member")
	joiner, _ := env.registerUser(t, "joiner@example.com", "Joiner")

	w, envelope := env.do(t, http.MethodPost, "/api/teams", creatorTok, map[string]interface{}{
		"name":       "platform",
		"member_ids": []uint64{member.ID},
	})
	mustStatus(t, w, http.StatusCreated)
	var team dto.TeamDTO
	dataAs(t, envelope, &team)

	// Plain members cannot add.
	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", team.ID), memberTok,
		map[string]interface{}{"user_id": joiner.ID})
	mustStatus(t, w, http.StatusForbidden)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", team.ID), creatorTok,
		map[string]interface{}{"user_id": joiner.ID})
	mustStatus(t, w, http.StatusCreated)

	// Adding the same user twice conflicts.
	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", team.ID), creatorTok,
		map[string]interface{}{"user_id": joiner.ID})
	mustStatus(t, w, http.StatusConflict)

	// The creator cannot be removed.
	w, _ = env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/teams/%d/members/%d", team.ID, creator.ID), creatorTok, nil)
	mustStatus(t, w, http.StatusForbidden)

	w, _ = env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/teams/%d/members/%d", team.ID, joiner.ID), creatorTok, nil)
	mustStatus(t, w, http.StatusOK)
}

func TestTeamEndpoints_InvitationFlow(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, creatorTok := env.registerUser(t, "creator@example.com", "Creator")
	invitee, inviteeTok := env.registerUser(t, "invitee@example.com", "Invitee")

	w, envelope := env.do(t, http.MethodPost, "/api/teams", creatorTok,
		map[string]interface{}{"name": "platform"})
	mustStatus(t, w, http.StatusCreated)
	var team dto.TeamDTO
	dataAs(t, envelope, &team)

	w, envelope = env.do(t, http.MethodPost,
		fmt.Sprintf("/api/teams/%d/invitations", team.ID), creatorTok,
		map[string]interface{}{"user_id": invitee.ID, "message": "join us"})
	mustStatus(t, w, http.StatusCreated)

	var inv dto.TeamInvitationDTO
	dataAs(t, envelope, &inv)
	require.Equal(t, "PENDING", string(inv.Status))

	// The invitee sees it in their invitation list.
	w, envelope = env.do(t, http.MethodGet, "/api/invitations", inviteeTok, nil)
	mustStatus(t, w, http.StatusOK)
	var invs []dto.TeamInvitationDTO
	dataAs(t, envelope, &invs)
	require.Len(t, invs, 1)

	// Only the invitee may accept.
	w, _ = env.do(t, http.MethodPut,
		fmt.Sprintf("/api/invitations/%d/accept", inv.ID), creatorTok, nil)
	mustStatus(t, w, http.StatusForbidden)

	w, _ = env.do(t, http.MethodPut,
		fmt.Sprintf("/api/invitations/%d/accept", inv.ID), inviteeTok, nil)
	mustStatus(t, w, http.StatusOK)

	// Accepting grants team access.
	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), inviteeTok, nil)
	mustStatus(t, w, http.StatusOK)
}

func TestNotificationEndpoints_OwnerScoped(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, creatorTok := env.registerUser(t, "creator@example.com", "Creator")
	assignee, assigneeTok := env.registerUser(t, "assignee@example.com", "Assignee")

	// Assigning a task produces a notification for the assignee.
	w, _ := env.do(t, http.MethodPost, "/api/tasks", creatorTok, map[string]interface{}{
		"title":        "review PR",
		"description":  "please review",
		"due_date":     "2030-01-01T00:00:00Z",
		"priority":     "LOW",
		"assignee_ids": []uint64{assignee.ID},
	})
	mustStatus(t, w, http.StatusCreated)

	w, envelope := env.do(t, http.MethodGet, "/api/notifications", assigneeTok, nil)
	mustStatus(t, w, http.StatusOK)
	var notifications []dto.NotificationDTO
	dataAs(t, envelope, &notifications)
	require.Len(t, notifications, 1)
	require.Equal(t, "You have been assigned to task: review PR", notifications[0].Message)
	require.False(t, notifications[0].Read)

	// The creator cannot touch the assignee's notification.
	w, _ = env.do(t, http.MethodPut,
		fmt.Sprintf("/api/notifications/%d/read", notifications[0].ID), creatorTok, nil)
	mustStatus(t, w, http.StatusNotFound)

	w, _ = env.do(t, http.MethodPut,
		fmt.Sprintf("/api/notifications/%d/read", notifications[0].ID), assigneeTok, nil)
	mustStatus(t, w, http.StatusOK)

	w, _ = env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/notifications/%d", notifications[0].ID), assigneeTok, nil)
	mustStatus(t, w, http.StatusOK)

	w, envelope = env.do(t, http.MethodGet, "/api/notifications", assigneeTok, nil)
	mustStatus(t, w, http.StatusOK)
	dataAs(t, envelope, &notifications)
	require.Empty(t, notifications)
}
