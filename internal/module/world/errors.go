package world

import (
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

// Lookup errors.
var (
	ErrWorldNotFound      = apperrors.NotFound("world")
	ErrMembershipNotFound = apperrors.NotFound("membership")
	ErrUserNotFound       = apperrors.NotFound("user")
)

// Permission errors not covered by the policy reasons.
var (
	ErrNotMember     = apperrors.Forbidden("you are not a member of this world")
	ErrNotYourInvite = apperrors.Forbidden("this invite is not addressed to you")
	ErrNotWorldOwner = apperrors.Forbidden("only the world owner can remove other members")
)

// State transition errors.
var (
	ErrAlreadyMember       = apperrors.Conflict("user is already a member or has a pending invite")
	ErrNotPending          = apperrors.Conflict("invite is no longer pending")
	ErrOwnerCannotLeave    = apperrors.Conflict("the owner cannot leave the world; delete it instead")
	ErrOwnerCannotBeKicked = apperrors.Conflict("the world owner cannot be removed")
)

// Validation errors.
var (
	ErrInvalidName      = apperrors.ValidationError("world name must be 1 to 100 characters")
	ErrInvalidTheme     = apperrors.ValidationError("unknown theme")
	ErrInvalidCardStyle = apperrors.ValidationError("card style must be at most 32 lowercase letters, digits or dashes")
)
