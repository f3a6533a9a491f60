package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/taskhub/server/internal/constants"
	"github.com/taskhub/server/internal/events"
	"github.com/taskhub/server/internal/models"
	"github.com/taskhub/server/internal/repository"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrTeamNameTooLong       = fmt.Errorf("team name must be at most %d characters", constants.MaxTeamNameLength)
	ErrNotTeamMember         = errors.New("you are not a member of this team")
	ErrNotTeamAdmin          = errors.New("only team admins can perform this action")
	ErrNotTeamCreator        = errors.New("only the team creator can delete the team")
	ErrAlreadyMember         = errors.New("user is already a member")
	ErrCannotRemoveCreator   = errors.New("cannot remove team creator")
	ErrMemberNotFound        = errors.New("team member not found")
	ErrInvalidRole           = errors.New("role must be admin or member")
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrNotInvitee            = errors.New("only the invited user can respond to this invitation")
	ErrInvitationResolved    = errors.New("invitation has already been resolved")
	ErrInvitationOutstanding = errors.New("user already has a pending invitation")
)

// teamPreloads loads everything the detailed team view renders.
var teamPreloads = []string{
	"Creator",
	"Members", "Members.User",
	"Tasks", "Tasks.Creator", "Tasks.Assignments", "Tasks.Assignments.User",
}

// TeamService handles team, membership, and invitation business logic.
type TeamService struct {
	teamRepo         repository.TeamRepository
	taskRepo         repository.TaskRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	publisher        events.Publisher
}

// NewTeamService creates a new TeamService.
func NewTeamService(
	teamRepo repository.TeamRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	publisher events.Publisher,
) *TeamService {
	return &TeamService{
		teamRepo:         teamRepo,
		taskRepo:         taskRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// CreateTeamInput represents input for creating a team.
type CreateTeamInput struct {
	Name        string
	Description string
	MemberIDs   []uint64
	CreatorID   uint64
}

// CreateTeam persists the team with the creator as admin and any supplied
// members, all in one transaction: a bad member ID rolls back the team.
func (s *TeamService) CreateTeam(input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if len(name) > constants.MaxTeamNameLength {
		return nil, ErrTeamNameTooLong
	}

	memberIDs := make([]uint64, 0, len(input.MemberIDs))
	for _, id := range uniqueUint64(input.MemberIDs) {
		if id != input.CreatorID {
			memberIDs = append(memberIDs, id)
		}
	}

	if len(memberIDs) > 0 {
		count, err := s.userRepo.CountByIDs(memberIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to verify members: %w", err)
		}
		if int(count) != len(memberIDs) {
			return nil, ErrInvalidAssignee
		}
	}

	team := &models.Team{
		Name:        name,
		Description: input.Description,
		CreatorID:   input.CreatorID,
	}

	members := make([]models.TeamMember, 0, len(memberIDs)+1)
	members = append(members, models.TeamMember{
		UserID: input.CreatorID,
		Role:   models.RoleAdmin,
	})
	for _, id := range memberIDs {
		members = append(members, models.TeamMember{
			UserID: id,
			Role:   models.RoleMember,
		})
	}

	if err := s.teamRepo.CreateWithMembers(team, members); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	created, err := s.teamRepo.FindByID(team.ID, "Creator", "Members", "Members.User")
	if err != nil {
		return nil, fmt.Errorf("failed to reload team: %w", err)
	}

	s.publisher.Broadcast(events.New(events.TeamCreated, created))
	return created, nil
}

// TeamSummary is a team annotated with its task count for list views.
type TeamSummary struct {
	models.Team
	TaskCount int64 `json:"task_count"`
}

// ListTeams returns the caller's teams with members and a task count each.
func (s *TeamService) ListTeams(userID uint64) ([]TeamSummary, error) {
	teams, err := s.teamRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	teamIDs := make([]uint64, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}

	counts, err := s.taskRepo.CountByTeam(teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count team tasks: %w", err)
	}

	summaries := make([]TeamSummary, len(teams))
	for i, t := range teams {
		summaries[i] = TeamSummary{Team: t, TaskCount: counts[t.ID]}
	}
	return summaries, nil
}

// GetTeam returns a team with members and nested tasks. Only members may
// view it.
func (s *TeamService) GetTeam(teamID, callerID uint64) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(teamID, teamPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if !memberOf(team, callerID) {
		return nil, ErrNotTeamMember
	}

	return team, nil
}

// UpdateTeamInput represents a partial team update.
type UpdateTeamInput struct {
	Name        *string
	Description *string
}

// UpdateTeam updates name/description. Admins only.
func (s *TeamService) UpdateTeam(teamID uint64, input UpdateTeamInput, actorID uint64) (*models.Team, error) {
	if err := s.ensureAdmin(teamID, actorID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTeamNameRequired
		}
		if len(name) > constants.MaxTeamNameLength {
			return nil, ErrTeamNameTooLong
		}
		team.Name = name
	}
	if input.Description != nil {
		team.Description = *input.Description
	}

	if err := s.teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	s.publisher.Broadcast(events.New(events.TeamUpdated, team))
	return team, nil
}

// DeleteTeam deletes a team and everything in it. Creator only.
func (s *TeamService) DeleteTeam(teamID, actorID uint64) error {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	if team.CreatorID != actorID {
		return ErrNotTeamCreator
	}

	if err := s.teamRepo.Delete(teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.publisher.Broadcast(events.New(events.TeamDeleted, map[string]uint64{"id": teamID}))
	return nil
}

// AddMember adds a user to the team. Admins only; duplicates rejected.
func (s *TeamService) AddMember(teamID, userID, requesterID uint64, role models.TeamRole) (*models.TeamMember, error) {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.ensureAdmin(teamID, requesterID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.teamRepo.FindMember(teamID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.TeamMember{
		TeamID: teamID,
		UserID: userID,
		Role:   role,
	}
	if err := s.teamRepo.AddMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// RemoveMember removes a user from the team. Admins only; the creator is
// un-removable. The removed user alone receives a team-removed event.
func (s *TeamService) RemoveMember(teamID, userID, requesterID uint64) error {
	if err := s.ensureAdmin(teamID, requesterID); err != nil {
		return err
	}

	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}
	if team.CreatorID == userID {
		return ErrCannotRemoveCreator
	}

	if _, err := s.teamRepo.FindMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find member: %w", err)
	}

	if err := s.teamRepo.RemoveMember(teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.publisher.PublishToUser(userID, events.New(events.TeamRemoved, map[string]interface{}{
		"teamId":   teamID,
		"teamName": team.Name,
	}))
	return nil
}

// IsMember reports whether the user belongs to the team.
func (s *TeamService) IsMember(teamID, userID uint64) (bool, error) {
	_, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find member: %w", err)
	}
	return true, nil
}

// IsAdmin reports whether the user is an admin of the team.
func (s *TeamService) IsAdmin(teamID, userID uint64) (bool, error) {
	member, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find member: %w", err)
	}
	return member.Role == models.RoleAdmin, nil
}

// InviteMember creates a pending invitation for a user. Admins only; a user
// who is already a member or already invited is rejected.
func (s *TeamService) InviteMember(teamID, inviteeID, inviterID uint64, message string) (*models.TeamInvitation, error) {
	if err := s.ensureAdmin(teamID, inviterID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if _, err := s.userRepo.FindByID(inviteeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.teamRepo.FindMember(teamID, inviteeID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	if _, err := s.teamRepo.FindPendingInvitation(teamID, inviteeID); err == nil {
		return nil, ErrInvitationOutstanding
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify invitations: %w", err)
	}

	inv := &models.TeamInvitation{
		TeamID:    teamID,
		UserID:    inviteeID,
		InvitedBy: inviterID,
		Message:   message,
		Status:    models.InvitationPending,
	}
	if err := s.teamRepo.CreateInvitation(inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	n := &models.Notification{
		UserID:  inviteeID,
		Message: fmt.Sprintf("You have been invited to join team: %s", team.Name),
		Type:    models.NotificationTeamInvite,
	}
	_ = s.notificationRepo.Create(n)

	return inv, nil
}

// ListInvitations returns the caller's pending invitations.
func (s *TeamService) ListInvitations(userID uint64) ([]models.TeamInvitation, error) {
	invs, err := s.teamRepo.ListInvitationsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

// AcceptInvitation makes the invitee a member and resolves the invitation,
// atomically.
func (s *TeamService) AcceptInvitation(invitationID, actorID uint64) (*models.TeamInvitation, error) {
	inv, err := s.resolveInvitation(invitationID, actorID)
	if err != nil {
		return nil, err
	}

	inv.Status = models.InvitationAccepted
	member := &models.TeamMember{
		TeamID: inv.TeamID,
		UserID: inv.UserID,
		Role:   models.RoleMember,
	}

	if err := s.teamRepo.AcceptInvitation(inv, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	return inv, nil
}

// RejectInvitation resolves the invitation as rejected.
func (s *TeamService) RejectInvitation(invitationID, actorID uint64) (*models.TeamInvitation, error) {
	inv, err := s.resolveInvitation(invitationID, actorID)
	if err != nil {
		return nil, err
	}

	inv.Status = models.InvitationRejected
	if err := s.teamRepo.UpdateInvitation(inv); err != nil {
		return nil, fmt.Errorf("failed to reject invitation: %w", err)
	}
	return inv, nil
}

// resolveInvitation loads a pending invitation and checks the actor is the
// invitee.
func (s *TeamService) resolveInvitation(invitationID, actorID uint64) (*models.TeamInvitation, error) {
	inv, err := s.teamRepo.FindInvitationByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	if inv.UserID != actorID {
		return nil, ErrNotInvitee
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationResolved
	}
	return inv, nil
}

// ensureAdmin verifies the user is an admin member of the team.
func (s *TeamService) ensureAdmin(teamID, userID uint64) error {
	member, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotTeamAdmin
		}
		return fmt.Errorf("failed to verify team membership: %w", err)
	}
	if member.Role != models.RoleAdmin {
		return ErrNotTeamAdmin
	}
	return nil
}

// memberOf reports whether userID appears in the team's preloaded members.
func memberOf(team *models.Team, userID uint64) bool {
	for _, m := range team.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
