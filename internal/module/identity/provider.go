// Package identity resolves usernames and display profiles from the external
// identity provider. The board never owns user records.
package identity

import (
	"context"

	"github.com/worldboard/server/internal/model"
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

// ErrUserNotFound is returned when no user matches a lookup.
var ErrUserNotFound = apperrors.NotFound("user")

// Provider looks up users in the identity provider.
type Provider interface {
	// ResolveUsername returns the user id registered for username.
	ResolveUsername(ctx context.Context, username string) (string, error)
	// GetProfile returns the display profile of a user.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
}
