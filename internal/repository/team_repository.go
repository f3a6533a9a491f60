package repository

import (
	"errors"
	"fmt"

	"github.com/taskhub/server/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateTeam is returned when creating the team row fails inside the creation transaction.
	ErrCreateTeam = errors.New("team repository: create team failed")
	// ErrCreateTeamMember is returned when creating a membership row fails inside the creation transaction.
	ErrCreateTeamMember = errors.New("team repository: create team member failed")
)

// GormTeamRepository is a GORM implementation of TeamRepository.
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithMembers persists the team and all initial memberships atomically.
func (r *GormTeamRepository) CreateWithMembers(team *models.Team, members []models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeam, err)
		}

		for i := range members {
			members[i].TeamID = team.ID
		}

		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeamMember, err)
		}

		return nil
	})
}

// FindByID finds a team by ID with optional preloading.
func (r *GormTeamRepository) FindByID(id uint64, preload ...string) (*models.Team, error) {
	var team models.Team
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// ListForUser returns teams the user is a member of, newest first, with
// creator and members preloaded.
func (r *GormTeamRepository) ListForUser(userID uint64) ([]models.Team, error) {
	memberSubQuery := r.db.Model(&models.TeamMember{}).
		Select("1").
		Where("team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID)

	var teams []models.Team
	err := r.db.Model(&models.Team{}).
		Where("EXISTS (?)", memberSubQuery).
		Order("teams.created_at DESC").
		Preload("Creator").
		Preload("Members").
		Preload("Members.User").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// Update updates a team.
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Save(team).Error
}

// Delete removes the team, its memberships, invitations, and its tasks with
// their assignments.
func (r *GormTeamRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).Where("team_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Task{}, taskIDs).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamInvitation{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Team{}, id).Error
	})
}

// AddMember adds a member to a team.
func (r *GormTeamRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a team.
func (r *GormTeamRepository) RemoveMember(teamID, userID uint64) error {
	return r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error
}

// FindMember finds a specific team member.
func (r *GormTeamRepository) FindMember(teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a team with their users preloaded.
func (r *GormTeamRepository) ListMembers(teamID uint64) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.Where("team_id = ?", teamID).
		Preload("User").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CreateInvitation persists a new invitation.
func (r *GormTeamRepository) CreateInvitation(inv *models.TeamInvitation) error {
	return r.db.Create(inv).Error
}

// FindInvitationByID finds an invitation with its team preloaded.
func (r *GormTeamRepository) FindInvitationByID(id uint64) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	if err := r.db.Preload("Team").First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindPendingInvitation finds a pending invitation for a user to a team.
func (r *GormTeamRepository) FindPendingInvitation(teamID, userID uint64) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	err := r.db.Where("team_id = ? AND user_id = ? AND status = ?",
		teamID, userID, models.InvitationPending).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvitationsForUser returns the user's pending invitations, newest first.
func (r *GormTeamRepository) ListInvitationsForUser(userID uint64) ([]models.TeamInvitation, error) {
	var invs []models.TeamInvitation
	err := r.db.Where("user_id = ? AND status = ?", userID, models.InvitationPending).
		Order("created_at DESC").
		Preload("Team").
		Preload("Inviter").
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// UpdateInvitation updates an invitation.
func (r *GormTeamRepository) UpdateInvitation(inv *models.TeamInvitation) error {
	return r.db.Save(inv).Error
}

// AcceptInvitation marks the invitation accepted and inserts the membership
// row atomically.
func (r *GormTeamRepository) AcceptInvitation(inv *models.TeamInvitation, member *models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(inv).Error; err != nil {
			return err
		}
		return tx.Create(member).Error
	})
}
