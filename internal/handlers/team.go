package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/server/internal/dto"
	"github.com/taskhub/server/internal/middleware"
	"github.com/taskhub/server/internal/models"
	"github.com/taskhub/server/internal/response"
	"github.com/taskhub/server/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// CreateTeam creates a team with the caller as admin and any listed members
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		MemberIDs   []uint64 `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		MemberIDs:   req.MemberIDs,
		CreatorID:   userID,
	})
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListTeams returns the caller's teams with task counts
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	summaries, err := h.teamService.ListTeams(userID)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	dtos := make([]dto.TeamDTO, len(summaries))
	for i, s := range summaries {
		d := dto.ToTeamDTO(s.Team)
		count := s.TaskCount
		d.TaskCount = &count
		dtos[i] = d
	}
	response.OK(c, http.StatusOK, dtos)
}

// GetTeam returns a team with members and tasks. Members only.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teamID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid team ID")
		return
	}

	team, err := h.teamService.GetTeam(teamID, userID)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTeamDTO(*team))
}

// UpdateTeam updates team name/description. Admins only.
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teamID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid team ID")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.teamService.UpdateTeam(teamID, services.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	}, userID)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTeamDTO(*team))
}

// DeleteTeam deletes a team and its tasks. Creator only.
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teamID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid team ID")
		return
	}

	if err := h.teamService.DeleteTeam(teamID, userID); err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Team deleted successfully")
}

// AddMember adds a user directly to the team. Admins only.
func (h *TeamHandler) AddMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teamID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid team ID")
		return
	}

	var req struct {
		UserID uint64 `json:"user_id" binding:"required"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.teamService.AddMember(teamID, req.UserID, userID, models.TeamRole(req.Role))
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusCreated, dto.ToTeamMemberDTO(*member))
}

// RemoveMember removes a user from the team. Admins only.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teamID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid team ID")
		return
	}

	memberID, err := parseIDParam(c, "userId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.teamService.RemoveMember(teamID, memberID, userID); err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Member removed successfully")
}

// InviteMember creates a pending invitation. Admins only.
func (h *TeamHandler) InviteMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	teamID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid team ID")
		return
	}

	var req struct {
		UserID  uint64 `json:"user_id" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	inv, err := h.teamService.InviteMember(teamID, req.UserID, userID, req.Message)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusCreated, dto.ToTeamInvitationDTO(*inv))
}

// ListInvitations returns the caller's pending invitations
func (h *TeamHandler) ListInvitations(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	invs, err := h.teamService.ListInvitations(userID)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTeamInvitationDTOs(invs))
}

// AcceptInvitation accepts an invitation addressed to the caller
func (h *TeamHandler) AcceptInvitation(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	invID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid invitation ID")
		return
	}

	inv, err := h.teamService.AcceptInvitation(invID, userID)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTeamInvitationDTO(*inv))
}

// RejectInvitation rejects an invitation addressed to the caller
func (h *TeamHandler) RejectInvitation(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	invID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid invitation ID")
		return
	}

	inv, err := h.teamService.RejectInvitation(invID, userID)
	if err != nil {
		h.respondTeamError(c, err)
		return
	}

	response.OK(c, http.StatusOK, dto.ToTeamInvitationDTO(*inv))
}

func (h *TeamHandler) respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrInvitationNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrNotTeamAdmin),
		errors.Is(err, services.ErrNotTeamCreator),
		errors.Is(err, services.ErrCannotRemoveCreator),
		errors.Is(err, services.ErrNotInvitee):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrInvitationOutstanding),
		errors.Is(err, services.ErrInvitationResolved):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrTeamNameTooLong),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidAssignee):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}
