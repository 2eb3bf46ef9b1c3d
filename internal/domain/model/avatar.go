package model

import "time"

// AvatarDefinition is static reference data for one cosmetic avatar.
// A nil RequiredAchievementID marks a default avatar, unlocked at signup.
type AvatarDefinition struct {
	ID                    string    `json:"id"`
	Code                  string    `json:"code"`
	Name                  string    `json:"name"`
	ImageURL              string    `json:"image_url"`
	RequiredAchievementID *string   `json:"required_achievement_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// UserAvatarUnlock records that a user owns an avatar. Its presence
// implies the required achievement (if any) is also earned.
type UserAvatarUnlock struct {
	UserID     string    `json:"user_id"`
	AvatarID   string    `json:"avatar_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// UnlockedAvatar is the descriptor appended to a submission response
// when the cascade unlocks an avatar.
type UnlockedAvatar struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// AvatarWithState is a catalog row annotated with the viewer's unlock state.
type AvatarWithState struct {
	AvatarDefinition
	Unlocked bool `json:"unlocked"`
	Selected bool `json:"selected"`
}
