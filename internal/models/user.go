// Package models contains data structures for the blog's domain models.
package models

import "time"

// Role is the authorization role stored on a user.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User is a reader or author identified by an externally issued open ID.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OpenID       string    `gorm:"size:64;uniqueIndex;not null" json:"openId"`
	Name         *string   `gorm:"type:text" json:"name"`
	Email        *string   `gorm:"size:320" json:"email"`
	LoginMethod  *string   `gorm:"size:64" json:"loginMethod"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	LastSignedIn time.Time `gorm:"not null" json:"lastSignedIn"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserUpsert is the create-or-update payload keyed by OpenID. Fields left
// unset are not written on update; explicit nulls clear the stored value.
type UserUpsert struct {
	OpenID       string
	Name         Optional[string]
	Email        Optional[string]
	LoginMethod  Optional[string]
	Role         Optional[Role]
	LastSignedIn Optional[time.Time]
}
