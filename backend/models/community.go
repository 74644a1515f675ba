package models

import "gorm.io/gorm"

// CommunityPost is a feed post within a module. Posts with LessonID set
// are per-lesson comment threads keyed by (module_id, lesson_id).
type CommunityPost struct {
	gorm.Model
	ModuleID       uint   `gorm:"index" json:"module_id"`
	LessonID       *uint  `gorm:"index" json:"lesson_id"`
	AuthorID       uint   `json:"author_id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	ReactionsCount int    `json:"reactions_count"`

	Comments []CommunityComment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

type CommunityComment struct {
	gorm.Model
	PostID   uint   `gorm:"index" json:"post_id"`
	AuthorID uint   `json:"author_id"`
	Content  string `json:"content"`
}
