// Package models contains data structures for the application's domain models.
package models

import "time"

// Role is a user's privilege tier. Roles form a total order:
// user < admin < owner.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// Rank maps a role onto the hierarchy. Unknown roles rank below user.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// Moderator reports whether the role carries moderation privileges.
func (r Role) Moderator() bool {
	return r == RoleAdmin || r == RoleOwner
}

// User represents a community member.
//
// Visibility is tracked with explicit flags rather than gorm.DeletedAt:
// moderators still read soft-deleted rows, and physical deletion is a
// separate owner-only path.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         Role       `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	IsBanned     bool       `gorm:"not null;default:false" json:"is_banned"`
	BannedAt     *time.Time `json:"banned_at,omitempty"`
	LastActive   time.Time  `json:"last_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// OnlineWindow is how recently a user must have been active to count as online.
const OnlineWindow = 15 * time.Minute

// Online reports whether the user was active within the online window.
func (u *User) Online(now time.Time) bool {
	return now.Sub(u.LastActive) < OnlineWindow
}
