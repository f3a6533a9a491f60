package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/server/internal/dto"
	"github.com/taskhub/server/internal/middleware"
	"github.com/taskhub/server/internal/models"
	"github.com/taskhub/server/internal/repository"
	"github.com/taskhub/server/internal/response"
	"github.com/taskhub/server/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		DueDate     string   `json:"due_date" binding:"required"`
		Priority    string   `json:"priority" binding:"required"`
		AssigneeIDs []uint64 `json:"assignee_ids"`
		TeamID      *uint64  `json:"team_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "due_date must be an RFC 3339 timestamp")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    models.TaskPriority(req.Priority),
		AssigneeIDs: req.AssigneeIDs,
		TeamID:      req.TeamID,
		CreatorID:   userID,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	response.OK(c, http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListTasks returns tasks matching the query filters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	filter, err := parseTaskFilter(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.taskService.ListTasks(filter)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a single task with its relations
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update to a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		DueDate     *string   `json:"due_date"`
		Priority    *string   `json:"priority"`
		Status      *string   `json:"status"`
		AssigneeIDs *[]uint64 `json:"assignee_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeIDs: req.AssigneeIDs,
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "due_date must be an RFC 3339 timestamp")
			return
		}
		input.DueDate = &dueDate
	}
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		input.Priority = &p
	}
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		input.Status = &s
	}

	result, err := h.taskService.UpdateTask(taskID, input, userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTaskDTO(*result.Task))
}

// DeleteTask deletes a task. Creator only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(taskID, userID); err != nil {
		h.respondTaskError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Task deleted successfully")
}

// GetDashboard returns the caller's assigned, created, and overdue tasks in
// one response.
func (h *TaskHandler) GetDashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dashboard, err := h.taskService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"assignedTasks": dto.ToTaskDTOs(dashboard.AssignedTasks),
		"createdTasks":  dto.ToTaskDTOs(dashboard.CreatedTasks),
		"overdueTasks":  dto.ToTaskDTOs(dashboard.OverdueTasks),
	})
}

// ListAssignedTasks returns tasks assigned to the caller
func (h *TaskHandler) ListAssignedTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tasks, err := h.taskService.AssignedTasks(userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}
	response.OK(c, http.StatusOK, dto.ToTaskDTOs(tasks))
}

// ListCreatedTasks returns tasks created by the caller
func (h *TaskHandler) ListCreatedTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tasks, err := h.taskService.CreatedTasks(userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}
	response.OK(c, http.StatusOK, dto.ToTaskDTOs(tasks))
}

// ListOverdueTasks returns the caller's overdue, uncompleted tasks
func (h *TaskHandler) ListOverdueTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tasks, err := h.taskService.OverdueTasks(userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}
	response.OK(c, http.StatusOK, dto.ToTaskDTOs(tasks))
}

// parseTaskFilter builds a repository.TaskFilter from query parameters.
func parseTaskFilter(c *gin.Context) (repository.TaskFilter, error) {
	var filter repository.TaskFilter

	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !status.Valid() {
			return filter, errors.New("invalid status filter")
		}
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		if !priority.Valid() {
			return filter, errors.New("invalid priority filter")
		}
		filter.Priority = &priority
	}
	if v := c.Query("creator_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid creator_id filter")
		}
		filter.CreatorID = &id
	}
	if v := c.Query("assigned_to"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid assigned_to filter")
		}
		filter.AssignedTo = &id
	}
	if v := c.Query("team_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid team_id filter")
		}
		filter.TeamID = &id
	}

	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")
	return filter, nil
}

func parseIDParam(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotTaskCreator),
		errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrNotTeamMember):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrDescriptionRequired),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidAssignee):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrStaleCredential):
		response.Error(c, http.StatusUnauthorized, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}
