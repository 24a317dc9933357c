package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a single blog entry. It is owned by its author and may optionally
// reference a group. Posts are mutable by their author only; deletion is not
// exposed through the API.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	ImageURL string `json:"image_url"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID  *uint  `gorm:"index" json:"group_id"`
	Group    *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	// CommentsCount is computed at query time; read-only so writes never touch it
	CommentsCount int            `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
