package repository

import (
	"time"

	"github.com/taskhub/server/internal/models"
)

// Task sort fields accepted by TaskFilter.
const (
	SortByDueDate   = "due_date"
	SortByCreatedAt = "created_at"
)

// TaskFilter holds filtering and ordering options for listing tasks.
type TaskFilter struct {
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	CreatorID  *uint64
	AssignedTo *uint64
	TeamID     *uint64
	SortBy     string // due_date or created_at; defaults to due_date
	SortOrder  string // asc or desc; defaults to asc
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint64) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	List() ([]models.User, error)
	Update(user *models.User) error

	// CountByIDs counts how many of the given user IDs exist.
	CountByIDs(ids []uint64) (int64, error)

	// DeleteAccount removes the user together with their memberships,
	// assignments, notifications, and the tasks and teams they created,
	// in a single transaction.
	DeleteAccount(id uint64) error
}

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	// Create persists the task and its initial assignments atomically.
	Create(task *models.Task, assigneeIDs []uint64) error

	FindByID(id uint64, preload ...string) (*models.Task, error)
	List(filter TaskFilter) ([]models.Task, error)

	// UpdateWithAssignments saves the task and, when replaceAssignments is
	// set, swaps its assignee set wholesale (delete-all-then-recreate), all
	// in one transaction.
	UpdateWithAssignments(task *models.Task, assigneeIDs []uint64, replaceAssignments bool) error

	// Delete removes the task and its assignments.
	Delete(id uint64) error

	// FindOverdue returns tasks the user created or is assigned to, with a
	// due date before now and a status other than COMPLETED, ordered by due
	// date ascending.
	FindOverdue(userID uint64, now time.Time) ([]models.Task, error)

	// CountByTeam returns the number of live tasks per team.
	CountByTeam(teamIDs []uint64) (map[uint64]int64, error)
}

// TeamRepository defines the interface for team and invitation data access.
type TeamRepository interface {
	// CreateWithMembers persists the team and all initial membership rows in
	// one transaction; a failed member insert rolls back the team.
	CreateWithMembers(team *models.Team, members []models.TeamMember) error

	FindByID(id uint64, preload ...string) (*models.Team, error)
	ListForUser(userID uint64) ([]models.Team, error)
	Update(team *models.Team) error

	// Delete removes the team, its memberships, invitations, and its tasks
	// with their assignments.
	Delete(id uint64) error

	AddMember(member *models.TeamMember) error
	RemoveMember(teamID, userID uint64) error
	FindMember(teamID, userID uint64) (*models.TeamMember, error)
	ListMembers(teamID uint64) ([]models.TeamMember, error)

	CreateInvitation(inv *models.TeamInvitation) error
	FindInvitationByID(id uint64) (*models.TeamInvitation, error)
	FindPendingInvitation(teamID, userID uint64) (*models.TeamInvitation, error)
	ListInvitationsForUser(userID uint64) ([]models.TeamInvitation, error)
	UpdateInvitation(inv *models.TeamInvitation) error

	// AcceptInvitation marks the invitation accepted and inserts the
	// membership row in one transaction.
	AcceptInvitation(inv *models.TeamInvitation, member *models.TeamMember) error
}

// NotificationRepository defines the interface for notification data access.
// Mutations are scoped by owner: acting on another user's notification
// affects zero rows.
type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByUser(userID uint64) ([]models.Notification, error)
	MarkRead(id, userID uint64) (int64, error)
	MarkAllRead(userID uint64) error
	Delete(id, userID uint64) (int64, error)
	DeleteAll(userID uint64) error
}
