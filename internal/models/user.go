// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a local profile bound to one identity-provider subject.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"uniqueIndex;not null;size:191" json:"-"`
	Email      string    `gorm:"size:320" json:"email,omitempty"`
	Name       string    `gorm:"size:100" json:"name"`
	Username   string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Bio        string    `gorm:"type:text" json:"bio"`
	Image      string    `json:"image"`
	Location   string    `gorm:"size:100" json:"location"`
	Website    string    `gorm:"size:255" json:"website"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserSummary is the projection of a user embedded in posts, comments and suggestions.
type UserSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
	// FollowerCount is only populated by suggestion queries.
	FollowerCount int64 `json:"follower_count,omitempty"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Username: u.Username, Image: u.Image}
}

// Profile is a user with the aggregate counts shown on a profile page.
type Profile struct {
	User
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	PostCount      int64 `json:"post_count"`
}
