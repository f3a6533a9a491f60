package dto

import (
	"time"

	"github.com/taskhub/server/internal/models"
)

// TeamMemberDTO represents a team member in API responses
type TeamMemberDTO struct {
	UserID   uint64          `json:"user_id"`
	Role     models.TeamRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
	User     *UserDTO        `json:"user,omitempty"`
}

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatorID   uint64          `json:"creator_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	TaskCount   *int64          `json:"task_count,omitempty"`
	Creator     *UserDTO        `json:"creator,omitempty"`
	Members     []TeamMemberDTO `json:"members,omitempty"`
	Tasks       []TaskDTO       `json:"tasks,omitempty"`
}

// TeamInvitationDTO represents a team invitation in API responses
type TeamInvitationDTO struct {
	ID        uint64                  `json:"id"`
	TeamID    uint64                  `json:"team_id"`
	UserID    uint64                  `json:"user_id"`
	InvitedBy uint64                  `json:"invited_by"`
	Message   string                  `json:"message,omitempty"`
	Status    models.InvitationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	Team      *TeamDTO                `json:"team,omitempty"`
	Inviter   *UserDTO                `json:"inviter,omitempty"`
}

// ToTeamMemberDTO converts a TeamMember model to TeamMemberDTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	dto := TeamMemberDTO{
		UserID:   member.UserID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
	if member.User.ID != 0 {
		user := ToUserDTO(member.User)
		dto.User = &user
	}
	return dto
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	dto := TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatorID:   team.CreatorID,
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}

	// Include creator if preloaded
	if team.Creator.ID != 0 {
		creator := ToUserDTO(team.Creator)
		dto.Creator = &creator
	}

	// Include members if preloaded
	if len(team.Members) > 0 {
		dto.Members = make([]TeamMemberDTO, len(team.Members))
		for i, member := range team.Members {
			dto.Members[i] = ToTeamMemberDTO(member)
		}
	}

	// Include tasks if preloaded
	if len(team.Tasks) > 0 {
		dto.Tasks = ToTaskDTOs(team.Tasks)
	}

	return dto
}

// ToTeamInvitationDTO converts a TeamInvitation model to TeamInvitationDTO
func ToTeamInvitationDTO(inv models.TeamInvitation) TeamInvitationDTO {
	dto := TeamInvitationDTO{
		ID:        inv.ID,
		TeamID:    inv.TeamID,
		UserID:    inv.UserID,
		InvitedBy: inv.InvitedBy,
		Message:   inv.Message,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
	}
	if inv.Team.ID != 0 {
		team := ToTeamDTO(inv.Team)
		dto.Team = &team
	}
	if inv.Inviter.ID != 0 {
		inviter := ToUserDTO(inv.Inviter)
		dto.Inviter = &inviter
	}
	return dto
}

// ToTeamInvitationDTOs converts a slice of TeamInvitation models
func ToTeamInvitationDTOs(invs []models.TeamInvitation) []TeamInvitationDTO {
	dtos := make([]TeamInvitationDTO, len(invs))
	for i, inv := range invs {
		dtos[i] = ToTeamInvitationDTO(inv)
	}
	return dtos
}
