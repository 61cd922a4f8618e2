package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/worldboard/server/internal/model"
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

// ErrUsernameTaken is returned when another user already holds a username.
var ErrUsernameTaken = apperrors.Conflict("username is already taken")

// Directory is a Provider backed by the local profiles table.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a new directory provider.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// ResolveUsername looks the username up case-insensitively.
func (d *Directory) ResolveUsername(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrUserNotFound
	}

	var p model.Profile
	err := d.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return p.UserID, nil
}

// GetProfile returns the stored profile for userID.
func (d *Directory) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert stores or replaces a profile.
func (d *Directory) Upsert(ctx context.Context, p *model.Profile) error {
	p.UpdatedAt = time.Now()
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "avatar_url", "updated_at"}),
		}).
		Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	return err
}
