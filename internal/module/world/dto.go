package world

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/utils/pagination"
)

// CreateWorldRequest represents a request to create a world.
type CreateWorldRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Theme string `json:"theme" binding:"omitempty"`
	// Invitee is an optional username invited in the same step.
	Invitee string `json:"invitee" binding:"omitempty,max=64"`
}

// RenameWorldRequest represents a request to rename a world.
type RenameWorldRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// SetThemeRequest represents a request to change a world's theme.
type SetThemeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// InviteRequest represents a request to invite a user by username.
type InviteRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

// SetCardStyleRequest sets the caller's card style in a world.
type SetCardStyleRequest struct {
	CardStyle string `json:"card_style"`
}

// WorldDetail is a world together with the caller's membership in it.
type WorldDetail struct {
	World      *model.World      `json:"world"`
	Membership *model.Membership `json:"membership"`
}

// WorldListResponse is a page of the caller's worlds.
type WorldListResponse struct {
	Worlds []*model.World      `json:"worlds"`
	Page   pagination.PageInfo `json:"page"`
}

// Member is a membership enriched with the member's profile.
type Member struct {
	ID          uuid.UUID          `json:"id"`
	UserID      string             `json:"user_id"`
	Username    string             `json:"username,omitempty"`
	DisplayName string             `json:"display_name"`
	AvatarURL   string             `json:"avatar_url,omitempty"`
	Role        model.MemberRole   `json:"role"`
	Status      model.MemberStatus `json:"status"`
	CardStyle   string             `json:"card_style,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func newMember(m *model.Membership, p model.Profile) *Member {
	return &Member{
		ID:          m.ID,
		UserID:      m.UserID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        m.Role,
		Status:      m.Status,
		CardStyle:   m.CardStyle,
		CreatedAt:   m.CreatedAt,
	}
}

// PendingInvite is an open invite addressed to the caller.
type PendingInvite struct {
	MembershipID uuid.UUID `json:"membership_id"`
	WorldID      uuid.UUID `json:"world_id"`
	WorldName    string    `json:"world_name"`
	OwnerID      string    `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}
