package model

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole represents a member's role within a world.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// IsValid checks if the role is valid.
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleMember:
		return true
	default:
		return false
	}
}

// MemberStatus represents the invite status of a membership.
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

// IsValid checks if the status is valid.
func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberStatusPending, MemberStatusAccepted:
		return true
	default:
		return false
	}
}

// World is a shared planning space owned by one user.
type World struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID         string    `json:"owner_id" gorm:"not null;index"`
	Name            string    `json:"name" gorm:"not null"`
	Theme           string    `json:"theme" gorm:"not null;default:plains"`
	TaskListVersion int64     `json:"task_list_version" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the table name.
func (World) TableName() string {
	return "worlds"
}

// Membership binds one user to one world.
type Membership struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	WorldID   uuid.UUID    `json:"world_id" gorm:"type:uuid;not null;uniqueIndex:idx_membership_world_user"`
	UserID    string       `json:"user_id" gorm:"not null;uniqueIndex:idx_membership_world_user;index"`
	Role      MemberRole   `json:"role" gorm:"not null;default:member"`
	Status    MemberStatus `json:"status" gorm:"not null;default:pending"`
	CardStyle string       `json:"card_style,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName returns the table name.
func (Membership) TableName() string {
	return "memberships"
}

// IsOwner reports whether the membership is the world's accepted owner.
func (m *Membership) IsOwner() bool {
	return m.Role == MemberRoleOwner && m.Status == MemberStatusAccepted
}

// IsAccepted reports whether the membership is active.
func (m *Membership) IsAccepted() bool {
	return m.Status == MemberStatusAccepted
}

// IsPending reports whether the membership is an open invite.
func (m *Membership) IsPending() bool {
	return m.Status == MemberStatusPending
}
