package repository

import (
	"time"

	"github.com/taskhub/server/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository.
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create persists the task and its initial assignments atomically.
func (r *GormTaskRepository) Create(task *models.Task, assigneeIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		if len(assigneeIDs) == 0 {
			return nil
		}

		assignments := make([]models.TaskAssignment, len(assigneeIDs))
		for i, userID := range assigneeIDs {
			assignments[i] = models.TaskAssignment{
				TaskID: task.ID,
				UserID: userID,
			}
		}
		return tx.Create(&assignments).Error
	})
}

// FindByID finds a task by ID with optional preloading.
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks matching the filter, with creator and assignees
// preloaded.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.TeamID != nil {
		query = query.Where("tasks.team_id = ?", *filter.TeamID)
	}
	if filter.AssignedTo != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedTo)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}

	sortBy := filter.SortBy
	if sortBy != SortByCreatedAt {
		sortBy = SortByDueDate
	}
	order := "ASC"
	if filter.SortOrder == "desc" {
		order = "DESC"
	}

	var tasks []models.Task
	err := query.
		Order("tasks." + sortBy + " " + order).
		Preload("Creator").
		Preload("Assignments").
		Preload("Assignments.User").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateWithAssignments saves the task and optionally swaps its assignee set
// wholesale, all inside one transaction.
func (r *GormTaskRepository) UpdateWithAssignments(task *models.Task, assigneeIDs []uint64, replaceAssignments bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Creator", "Team", "Assignments").Save(task).Error; err != nil {
			return err
		}

		if !replaceAssignments {
			return nil
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		if len(assigneeIDs) == 0 {
			return nil
		}

		assignments := make([]models.TaskAssignment, len(assigneeIDs))
		for i, userID := range assigneeIDs {
			assignments[i] = models.TaskAssignment{
				TaskID: task.ID,
				UserID: userID,
			}
		}
		return tx.Create(&assignments).Error
	})
}

// Delete removes the task and its assignments.
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

// FindOverdue returns the user's overdue tasks: created by or assigned to
// the user, due before now, and not COMPLETED.
func (r *GormTaskRepository) FindOverdue(userID uint64, now time.Time) ([]models.Task, error) {
	assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID)

	var tasks []models.Task
	err := r.db.Model(&models.Task{}).
		Where("tasks.creator_id = ? OR EXISTS (?)", userID, assignmentSubQuery).
		Where("tasks.due_date < ?", now).
		Where("tasks.status <> ?", models.TaskStatusCompleted).
		Order("tasks.due_date ASC").
		Preload("Creator").
		Preload("Assignments").
		Preload("Assignments.User").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountByTeam returns the number of live tasks per team.
func (r *GormTaskRepository) CountByTeam(teamIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(teamIDs))
	if len(teamIDs) == 0 {
		return counts, nil
	}

	type row struct {
		TeamID uint64
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Task{}).
		Select("team_id, COUNT(*) AS count").
		Where("team_id IN ?", teamIDs).
		Group("team_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.TeamID] = row.Count
	}
	return counts, nil
}
