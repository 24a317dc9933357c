package models

import "time"

// Follow is a directed edge from a follower to an author. The pair is unique;
// self-follows are rejected before this record is ever created.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;index;uniqueIndex:idx_follower_author" json:"follower_id"`
	AuthorID   uint      `gorm:"not null;index;uniqueIndex:idx_follower_author" json:"author_id"`
	Follower   User      `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Follow) TableName() string {
	return "follows"
}
