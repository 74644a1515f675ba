package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	OwnerID     uint   `gorm:"index" json:"owner_id"`
	// Legacy color pair, superseded by Branding.
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`

	Branding Branding `json:"-"`
	Modules  []Module `json:"-"`
	Members  []Member `json:"-"`
}

// Branding holds the visual theme of one project. Zero or one row per
// project; absence means "use defaults" and the first load materializes
// a default row.
type Branding struct {
	gorm.Model
	ProjectID             uint    `gorm:"uniqueIndex" json:"project_id"`
	PrimaryColor          string  `json:"primary_color"`
	SecondaryColor        string  `json:"secondary_color"`
	AccentColor           string  `json:"accent_color"`
	BackgroundColor       string  `json:"background_color"`
	ContainerColor        string  `json:"container_color"`
	ButtonColor           string  `json:"button_color"`
	TextColor             string  `json:"text_color"`
	HeaderBackgroundColor string  `json:"header_background_color"`
	HeaderTextColor       string  `json:"header_text_color"`
	CardTextColor         string  `json:"card_text_color"`
	MutedTextColor        string  `json:"muted_text_color"`
	CustomLogoURL         *string `json:"custom_logo_url"`
	DarkMode              bool    `json:"dark_mode"`
}
