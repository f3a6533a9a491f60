package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

type TeamInvitation struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	TeamID    uint64           `gorm:"not null;index" json:"team_id"`
	UserID    uint64           `gorm:"not null;index" json:"user_id"`
	InvitedBy uint64           `gorm:"not null" json:"invited_by"`
	Message   string           `gorm:"type:text" json:"message"`
	Status    InvitationStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	Team    Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User    User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Inviter User `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
}
