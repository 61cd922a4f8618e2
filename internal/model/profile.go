package model

import "time"

// Profile is the display data the identity provider publishes for a user.
// The board only reads it.
type Profile struct {
	UserID      string    `json:"user_id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"not null;uniqueIndex"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name.
func (Profile) TableName() string {
	return "profiles"
}

// UnknownProfile is shown for members whose profile could not be fetched.
func UnknownProfile(userID string) Profile {
	return Profile{UserID: userID, DisplayName: "Unknown"}
}
