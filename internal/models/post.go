package models

import "time"

// Published flag values for Post.Published.
const (
	PostDraft     = 0
	PostPublished = 1
)

// Post is a blog article. Only posts with Published = 1 are visible to readers.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Excerpt     *string    `gorm:"type:text" json:"excerpt"`
	Published   int        `gorm:"not null;index" json:"published"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	CategoryID  *uint      `gorm:"index" json:"categoryId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Category *Category `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
