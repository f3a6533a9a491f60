package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/taskhub/server/internal/constants"
	"github.com/taskhub/server/internal/events"
	"github.com/taskhub/server/internal/models"
	"github.com/taskhub/server/internal/repository"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotTaskCreator       = errors.New("only the task creator can delete this task")
	ErrTaskPermissionDenied = errors.New("you are not allowed to modify this task")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleTooLong         = fmt.Errorf("title must be at most %d characters", constants.MaxTitleLength)
	ErrDescriptionRequired  = errors.New("description is required")
	ErrDueDateRequired      = errors.New("due date is required")
	ErrInvalidPriority      = errors.New("priority must be one of LOW, MEDIUM, HIGH, URGENT")
	ErrInvalidStatus        = errors.New("status must be one of TODO, IN_PROGRESS, REVIEW, COMPLETED")
	ErrInvalidAssignee      = errors.New("one or more assignees do not exist")

	// ErrStaleCredential indicates the caller's token references a user that
	// no longer exists; the store rejected the write with a referential
	// integrity violation.
	ErrStaleCredential = errors.New("credential no longer maps to an existing user")
)

// taskPreloads loads everything the task DTOs render.
var taskPreloads = []string{"Creator", "Team", "Assignments", "Assignments.User"}

// TaskService handles task business logic.
type TaskService struct {
	taskRepo         repository.TaskRepository
	teamRepo         repository.TeamRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	publisher        events.Publisher
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskRepo repository.TaskRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	publisher events.Publisher,
) *TaskService {
	return &TaskService{
		taskRepo:         taskRepo,
		teamRepo:         teamRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// canMutateTask is the single authorization rule for task updates: the
// creator, any current assignee, or anyone when the task has no assignees
// (an open task may be picked up by whoever gets to it first).
func canMutateTask(task *models.Task, userID uint64) bool {
	if task.CreatorID == userID {
		return true
	}
	if len(task.Assignments) == 0 {
		return true
	}
	return task.IsAssignee(userID)
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    models.TaskPriority
	AssigneeIDs []uint64
	TeamID      *uint64
	CreatorID   uint64
}

// CreateTask validates and persists a new task with status TODO, assigns the
// requested users, notifies them, and announces the task to all clients.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if input.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	creator, err := s.userRepo.FindByID(input.CreatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaleCredential
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	if input.TeamID != nil {
		if err := s.ensureTeamMember(*input.TeamID, input.CreatorID); err != nil {
			return nil, err
		}
	}

	assigneeIDs := uniqueUint64(input.AssigneeIDs)
	if err := s.verifyUsersExist(assigneeIDs); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      models.TaskStatusTodo,
		CreatorID:   input.CreatorID,
		TeamID:      input.TeamID,
	}

	if err := s.taskRepo.Create(task, assigneeIDs); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrStaleCredential
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifyAssigned(created, assigneeIDs, creator)
	s.publisher.Broadcast(events.New(events.TaskCreated, created))

	return created, nil
}

// ListTasks returns tasks matching the filter.
func (s *TaskService) ListTasks(filter repository.TaskFilter) ([]models.Task, error) {
	tasks, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with related data. Team tasks are only visible to
// team members.
func (s *TaskService) GetTask(taskID, callerID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.TeamID != nil {
		if err := s.ensureTeamMember(*task.TeamID, callerID); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// UpdateTaskInput represents a partial task update. Nil fields are left
// unchanged; a non-nil AssigneeIDs replaces the assignee set wholesale.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
	AssigneeIDs *[]uint64
}

// UpdateTaskResult carries the updated task and the users the update newly
// assigned, so callers can act on the delta.
type UpdateTaskResult struct {
	Task           *models.Task
	NewAssigneeIDs []uint64
}

// UpdateTask applies a partial update. Status may move between any of the
// four values; no transition order is enforced. Newly assigned users get a
// notification and a task-assigned event; every client gets task-updated.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput, actorID uint64) (*UpdateTaskResult, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canMutateTask(task, actorID) {
		return nil, ErrTaskPermissionDenied
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if len(title) > constants.MaxTitleLength {
			return nil, ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, ErrDescriptionRequired
		}
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}

	var newAssigneeIDs []uint64
	var assigneeIDs []uint64
	replaceAssignments := input.AssigneeIDs != nil
	if replaceAssignments {
		assigneeIDs = uniqueUint64(*input.AssigneeIDs)
		if err := s.verifyUsersExist(assigneeIDs); err != nil {
			return nil, err
		}

		current := make(map[uint64]struct{}, len(task.Assignments))
		for _, a := range task.Assignments {
			current[a.UserID] = struct{}{}
		}
		for _, id := range assigneeIDs {
			if _, ok := current[id]; !ok {
				newAssigneeIDs = append(newAssigneeIDs, id)
			}
		}
	}

	if err := s.taskRepo.UpdateWithAssignments(task, assigneeIDs, replaceAssignments); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	if len(newAssigneeIDs) > 0 {
		actor, err := s.userRepo.FindByID(actorID)
		if err == nil {
			s.notifyAssigned(updated, newAssigneeIDs, actor)
		}
	}
	s.publisher.Broadcast(events.New(events.TaskUpdated, updated))

	return &UpdateTaskResult{Task: updated, NewAssigneeIDs: newAssigneeIDs}, nil
}

// DeleteTask deletes a task. Only the creator may delete.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if task.CreatorID != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.publisher.Broadcast(events.New(events.TaskDeleted, map[string]uint64{"id": taskID}))
	return nil
}

// Dashboard aggregates the caller's assigned, created, and overdue tasks.
type Dashboard struct {
	AssignedTasks []models.Task `json:"assignedTasks"`
	CreatedTasks  []models.Task `json:"createdTasks"`
	OverdueTasks  []models.Task `json:"overdueTasks"`
}

// GetDashboard fetches the three dashboard collections concurrently as
// independent queries.
func (s *TaskService) GetDashboard(ctx context.Context, userID uint64) (*Dashboard, error) {
	var dashboard Dashboard

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.AssignedTasks(userID)
		dashboard.AssignedTasks = tasks
		return err
	})
	g.Go(func() error {
		tasks, err := s.CreatedTasks(userID)
		dashboard.CreatedTasks = tasks
		return err
	})
	g.Go(func() error {
		tasks, err := s.OverdueTasks(userID)
		dashboard.OverdueTasks = tasks
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// AssignedTasks returns tasks assigned to the user, due date ascending.
func (s *TaskService) AssignedTasks(userID uint64) ([]models.Task, error) {
	return s.ListTasks(repository.TaskFilter{AssignedTo: &userID})
}

// CreatedTasks returns tasks the user created, due date ascending.
func (s *TaskService) CreatedTasks(userID uint64) ([]models.Task, error) {
	return s.ListTasks(repository.TaskFilter{CreatorID: &userID})
}

// OverdueTasks returns the user's overdue tasks: created by or assigned to
// the user, due before now, and not COMPLETED.
func (s *TaskService) OverdueTasks(userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.FindOverdue(userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	return tasks, nil
}

// notifyAssigned persists a notification and emits a task-assigned event for
// each newly assigned user. The actor is skipped: self-assignment needs no
// notice. Emission is fire-and-forget.
func (s *TaskService) notifyAssigned(task *models.Task, userIDs []uint64, actor *models.User) {
	for _, userID := range userIDs {
		if userID == actor.ID {
			continue
		}

		n := &models.Notification{
			UserID:  userID,
			Message: fmt.Sprintf("You have been assigned to task: %s", task.Title),
			Type:    models.NotificationTaskAssigned,
		}
		// A failed insert only costs the notification; the mutation that
		// triggered it has already committed.
		_ = s.notificationRepo.Create(n)

		s.publisher.PublishToUser(userID, events.New(events.TaskAssigned, events.AssignmentPayload{
			TaskID:     task.ID,
			TaskTitle:  task.Title,
			AssignedBy: actor.Name,
		}))
	}
}

// ensureTeamMember verifies the user belongs to the team.
func (s *TaskService) ensureTeamMember(teamID, userID uint64) error {
	_, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to verify team membership: %w", err)
	}
	return nil
}

// verifyUsersExist checks every given user ID against the store.
func (s *TaskService) verifyUsersExist(userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	count, err := s.userRepo.CountByIDs(userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidAssignee
	}
	return nil
}

// uniqueUint64 removes duplicate values, preserving order.
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))
	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
