package models

import "gorm.io/gorm"

type Module struct {
	gorm.Model
	ProjectID   uint   `gorm:"index" json:"project_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	BannerURL   string `json:"banner_url"`
	// Sort key for presentation; not required to be unique.
	DisplayOrder int  `json:"display_order"`
	IsPublished  bool `json:"is_published"`

	Lessons []Lesson `json:"lessons,omitempty"`
}

type Lesson struct {
	gorm.Model
	ModuleID    uint   `gorm:"index" json:"module_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	// Owner-authored rich text, rendered unescaped on the client.
	Content         string `json:"content"`
	ContentType     string `gorm:"default:text" json:"content_type"` // video, pdf, image, text
	FileURL         string `json:"file_url"`
	DurationMinutes *int   `json:"duration_minutes"`
	DisplayOrder    int    `json:"display_order"`
	IsPublished     bool   `json:"is_published"`
}
