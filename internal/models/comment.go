package models

import "time"

// Approved flag values for Comment.Approved.
const (
	CommentPending  = 0
	CommentApproved = 1
)

// Comment length bounds, counted in characters.
const (
	CommentMinLength = 1
	CommentMaxLength = 5000
)

// Comment is a reader's reply to a post. New comments are pending until a
// moderator approves them.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Approved  int       `gorm:"not null;index" json:"approved"`
	CreatedAt time.Time `json:"createdAt"`

	Post Post `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
