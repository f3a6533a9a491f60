package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskhub/server/internal/dto"
)

func createTaskRequest(dueDate time.Time, assigneeIDs ...uint64) map[string]interface{} {
	return map[string]interface{}{
		"title":        "write report",
		"description":  "quarterly report",
		"due_date":     dueDate.Format(time.RFC3339),
		"priority":     "HIGH",
		"assignee_ids": assigneeIDs,
	}
}

func TestTaskEndpoints_CreateAndGet(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, tok := env.registerUser(t, "creator@example.com", "Creator")
	assignee, _ := env.registerUser(t, "assignee@example.com", "Assignee")

	w, envelope := env.do(t, http.MethodPost, "/api/tasks", tok,
		createTaskRequest(time.Now().Add(48*time.Hour), assignee.ID))
	mustStatus(t, w, http.StatusCreated)

	var created dto.TaskDTO
	dataAs(t, envelope, &created)
	require.Equal(t, "write report", created.Title)
	require.Equal(t, "TODO", string(created.Status))
	require.Len(t, created.Assignments, 1)
	require.Equal(t, assignee.ID, created.Assignments[0].User.ID)

	w, envelope = env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", created.ID), tok, nil)
	mustStatus(t, w, http.StatusOK)

	var fetched dto.TaskDTO
	dataAs(t, envelope, &fetched)
	require.Equal(t, created.ID, fetched.ID)
	require.NotNil(t, fetched.Creator)
	require.Equal(t, "creator@example.com", fetched.Creator.Email)
}

func TestTaskEndpoints_CreateValidation(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, tok := env.registerUser(t, "creator@example.com", "Creator")

	req := createTaskRequest(time.Now().Add(time.Hour))
	req["due_date"] = "tomorrow"
	w, _ := env.do(t, http.MethodPost, "/api/tasks", tok, req)
	mustStatus(t, w, http.StatusBadRequest)

	req = createTaskRequest(time.Now().Add(time.Hour))
	req["priority"] = "CRITICAL"
	w, envelope := env.do(t, http.MethodPost, "/api/tasks", tok, req)
	mustStatus(t, w, http.StatusBadRequest)
	require.False(t, envelope.Success)
}

func TestTaskEndpoints_ListWithFilters(t *testing.T) {
	env := setupHandlerTestEnv(t)
	creator, tok := env.registerUser(t, "creator@example.com", "Creator")
	other, otherTok := env.registerUser(t, "other@example.com", "Other")

	w, _ := env.do(t, http.MethodPost, "/api/tasks", tok,
		createTaskRequest(time.Now().Add(time.Hour), other.ID))
	mustStatus(t, w, http.StatusCreated)

	w, _ = env.do(t, http.MethodPost, "/api/tasks", otherTok,
		createTaskRequest(time.Now().Add(2*time.Hour)))
	mustStatus(t, w, http.StatusCreated)

	w, envelope := env.do(t, http.MethodGet,
		fmt.Sprintf("/api/tasks?creator_id=%d", creator.ID), tok, nil)
	mustStatus(t, w, http.StatusOK)

	var tasks []dto.TaskDTO
	dataAs(t, envelope, &tasks)
	require.Len(t, tasks, 1)
	require.Equal(t, creator.ID, tasks[0].CreatorID)

	w, envelope = env.do(t, http.MethodGet,
		fmt.Sprintf("/api/tasks?assigned_to=%d", other.ID), tok, nil)
	mustStatus(t, w, http.StatusOK)
	dataAs(t, envelope, &tasks)
	require.Len(t, tasks, 1)

	w, _ = env.do(t, http.MethodGet, "/api/tasks?status=FINISHED", tok, nil)
	mustStatus(t, w, http.StatusBadRequest)
}

func TestTaskEndpoints_UpdatePermissions(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, creatorTok := env.registerUser(t, "creator@example.com", "Creator")
	assignee, _ := env.registerUser(t, "assignee@example.com", "Assignee")
	_, outsiderTok := env.registerUser(t, "outsider@example.com", "Outsider")

	w, envelope := env.do(t, http.MethodPost, "/api/tasks", creatorTok,
		createTaskRequest(time.Now().Add(time.Hour), assignee.ID))
	mustStatus(t, w, http.StatusCreated)

	var task dto.TaskDTO
	dataAs(t, envelope, &task)

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), outsiderTok,
		map[string]string{"status": "COMPLETED"})
	mustStatus(t, w, http.StatusForbidden)

	w, envelope = env.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), creatorTok,
		map[string]string{"status": "COMPLETED"})
	mustStatus(t, w, http.StatusOK)
	dataAs(t, envelope, &task)
	require.Equal(t, "COMPLETED", string(task.Status))
}

func TestTaskEndpoints_DeleteCreatorOnly(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, creatorTok := env.registerUser(t, "creator@example.com", "Creator")
	assignee, assigneeTok := env.registerUser(t, "assignee@example.com", "Assignee")

	w, envelope := env.do(t, http.MethodPost, "/api/tasks", creatorTok,
		createTaskRequest(time.Now().Add(time.Hour), assignee.ID))
	mustStatus(t, w, http.StatusCreated)

	var task dto.TaskDTO
	dataAs(t, envelope, &task)

	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), assigneeTok, nil)
	mustStatus(t, w, http.StatusForbidden)

	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), creatorTok, nil)
	mustStatus(t, w, http.StatusOK)

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), creatorTok, nil)
	mustStatus(t, w, http.StatusNotFound)
}

func TestTaskEndpoints_Dashboard(t *testing.T) {
	env := setupHandlerTestEnv(t)
	me, myTok := env.registerUser(t, "me@example.com", "Me")
	_, otherTok := env.registerUser(t, "other@example.com", "Other")

	// A task I created, due in the future.
	w, _ := env.do(t, http.MethodPost, "/api/tasks", myTok,
		createTaskRequest(time.Now().Add(24*time.Hour)))
	mustStatus(t, w, http.StatusCreated)

	// A task assigned to me, long overdue.
	overdueDate, err := time.Parse(time.RFC3339, "2020-01-01T00:00:00Z")
	require.NoError(t, err)
	w, _ = env.do(t, http.MethodPost, "/api/tasks", otherTok,
		createTaskRequest(overdueDate, me.ID))
	mustStatus(t, w, http.StatusCreated)

	w, envelope := env.do(t, http.MethodGet, "/api/tasks/dashboard", myTok, nil)
	mustStatus(t, w, http.StatusOK)

	var dashboard struct {
		AssignedTasks []dto.TaskDTO `json:"assignedTasks"`
		CreatedTasks  []dto.TaskDTO `json:"createdTasks"`
		OverdueTasks  []dto.TaskDTO `json:"overdueTasks"`
	}
	dataAs(t, envelope, &dashboard)
	require.Len(t, dashboard.AssignedTasks, 1)
	require.Len(t, dashboard.CreatedTasks, 1)
	require.Len(t, dashboard.OverdueTasks, 1)

	w, envelope = env.do(t, http.MethodGet, "/api/tasks/overdue", myTok, nil)
	mustStatus(t, w, http.StatusOK)
	var overdue []dto.TaskDTO
	dataAs(t, envelope, &overdue)
	require.Len(t, overdue, 1)
}
