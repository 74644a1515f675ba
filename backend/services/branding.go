package services

import (
	"errors"
	"fmt"
	"memberspace/backend/models"
	"regexp"
	"time"

	"gorm.io/gorm"
)

// Default palette applied when a project has no branding row yet.
var defaultBranding = models.Branding{
	PrimaryColor:          "#D4AF37",
	SecondaryColor:        "#FFD700",
	AccentColor:           "#F59E0B",
	BackgroundColor:       "#0A0A0A",
	ContainerColor:        "#1A1A1A",
	ButtonColor:           "#D4AF37",
	TextColor:             "#F5F5F5",
	HeaderBackgroundColor: "#1E293B",
	HeaderTextColor:       "#F1F5F9",
	CardTextColor:         "#F1F5F9",
	MutedTextColor:        "#A0A0A0",
	CustomLogoURL:         nil,
	DarkMode:              false,
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// BrandingPatch is a partial branding update. Nil fields inherit from the
// current row, then from the defaults.
type BrandingPatch struct {
	PrimaryColor          *string `json:"primary_color"`
	SecondaryColor        *string `json:"secondary_color"`
	AccentColor           *string `json:"accent_color"`
	BackgroundColor       *string `json:"background_color"`
	ContainerColor        *string `json:"container_color"`
	ButtonColor           *string `json:"button_color"`
	TextColor             *string `json:"text_color"`
	HeaderBackgroundColor *string `json:"header_background_color"`
	HeaderTextColor       *string `json:"header_text_color"`
	CardTextColor         *string `json:"card_text_color"`
	MutedTextColor        *string `json:"muted_text_color"`
	CustomLogoURL         *string `json:"custom_logo_url"`
	DarkMode              *bool   `json:"dark_mode"`
}

type BrandingService struct {
	DB *gorm.DB
}

func NewBrandingService(db *gorm.DB) *BrandingService {
	return &BrandingService{DB: db}
}

// DefaultBranding returns a copy of the default palette for a project.
func DefaultBranding(projectID uint) models.Branding {
	b := defaultBranding
	b.ProjectID = projectID
	return b
}

// Load fetches the branding row of a project, materializing a default row
// on first read. The returned branding is always usable: on a storage
// error the in-memory defaults come back alongside the error so callers
// can render something and surface a non-fatal notice.
func (s *BrandingService) Load(projectID uint) (models.Branding, error) {
	var branding models.Branding
	err := s.DB.Where("project_id = ?", projectID).First(&branding).Error
	if err == nil {
		return branding, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultBranding(projectID), err
	}

	branding = DefaultBranding(projectID)
	if err := s.DB.Create(&branding).Error; err != nil {
		// Lost the materialization race or the insert failed; either way
		// hand back a usable default.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.DB.Where("project_id = ?", projectID).First(&branding).Error; err == nil {
				return branding, nil
			}
		}
		return DefaultBranding(projectID), err
	}

	return branding, nil
}

// Save merges a partial update over the current branding (or defaults if
// none exists yet), stamps updated_at and persists keyed on project_id.
// Returns nil on failure; the previous state is left untouched.
func (s *BrandingService) Save(projectID uint, patch BrandingPatch) (*models.Branding, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	current, err := s.Load(projectID)
	if err != nil {
		return nil, err
	}

	applyPatch(&current, patch)
	current.UpdatedAt = time.Now()

	if err := s.DB.Save(&current).Error; err != nil {
		return nil, err
	}

	return &current, nil
}

// Reset rewrites the branding row to the default palette. The custom logo
// is explicitly cleared; defaults alone would not remove it.
func (s *BrandingService) Reset(projectID uint) (*models.Branding, error) {
	current, err := s.Load(projectID)
	if err != nil {
		return nil, err
	}

	reset := DefaultBranding(projectID)
	reset.ID = current.ID
	reset.CreatedAt = current.CreatedAt
	reset.UpdatedAt = time.Now()
	reset.CustomLogoURL = nil

	if err := s.DB.Save(&reset).Error; err != nil {
		return nil, err
	}

	return &reset, nil
}

// ThemeVars projects a branding row onto the CSS variable set consumed by
// the member-facing views. Pure with respect to its input: applying the
// same branding twice yields the same map. Blank fields fall back to the
// default palette, never to an empty value.
func (s *BrandingService) ThemeVars(b models.Branding) map[string]string {
	return map[string]string{
		"--member-primary-color":           orDefault(b.PrimaryColor, defaultBranding.PrimaryColor),
		"--member-secondary-color":         orDefault(b.SecondaryColor, defaultBranding.SecondaryColor),
		"--member-accent-color":            orDefault(b.AccentColor, defaultBranding.AccentColor),
		"--member-background-color":        orDefault(b.BackgroundColor, defaultBranding.BackgroundColor),
		"--member-container-color":         orDefault(b.ContainerColor, defaultBranding.ContainerColor),
		"--member-button-color":            orDefault(b.ButtonColor, defaultBranding.ButtonColor),
		"--member-text-color":              orDefault(b.TextColor, defaultBranding.TextColor),
		"--member-header-background-color": orDefault(b.HeaderBackgroundColor, defaultBranding.HeaderBackgroundColor),
		"--member-header-text-color":       orDefault(b.HeaderTextColor, defaultBranding.HeaderTextColor),
		"--member-card-text-color":         orDefault(b.CardTextColor, defaultBranding.CardTextColor),
		"--member-muted-text-color":        orDefault(b.MutedTextColor, defaultBranding.MutedTextColor),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func validatePatch(patch BrandingPatch) error {
	colors := map[string]*string{
		"primary_color":           patch.PrimaryColor,
		"secondary_color":         patch.SecondaryColor,
		"accent_color":            patch.AccentColor,
		"background_color":        patch.BackgroundColor,
		"container_color":         patch.ContainerColor,
		"button_color":            patch.ButtonColor,
		"text_color":              patch.TextColor,
		"header_background_color": patch.HeaderBackgroundColor,
		"header_text_color":       patch.HeaderTextColor,
		"card_text_color":         patch.CardTextColor,
		"muted_text_color":        patch.MutedTextColor,
	}

	for field, value := range colors {
		if value != nil && !hexColorRe.MatchString(*value) {
			return fmt.Errorf("%s must be a #RRGGBB color", field)
		}
	}

	return nil
}

func applyPatch(b *models.Branding, patch BrandingPatch) {
	if patch.PrimaryColor != nil {
		b.PrimaryColor = *patch.PrimaryColor
	}
	if patch.SecondaryColor != nil {
		b.SecondaryColor = *patch.SecondaryColor
	}
	if patch.AccentColor != nil {
		b.AccentColor = *patch.AccentColor
	}
	if patch.BackgroundColor != nil {
		b.BackgroundColor = *patch.BackgroundColor
	}
	if patch.ContainerColor != nil {
		b.ContainerColor = *patch.ContainerColor
	}
	if patch.ButtonColor != nil {
		b.ButtonColor = *patch.ButtonColor
	}
	if patch.TextColor != nil {
		b.TextColor = *patch.TextColor
	}
	if patch.HeaderBackgroundColor != nil {
		b.HeaderBackgroundColor = *patch.HeaderBackgroundColor
	}
	if patch.HeaderTextColor != nil {
		b.HeaderTextColor = *patch.HeaderTextColor
	}
	if patch.CardTextColor != nil {
		b.CardTextColor = *patch.CardTextColor
	}
	if patch.MutedTextColor != nil {
		b.MutedTextColor = *patch.MutedTextColor
	}
	if patch.CustomLogoURL != nil {
		if *patch.CustomLogoURL == "" {
			b.CustomLogoURL = nil
		} else {
			url := *patch.CustomLogoURL
			b.CustomLogoURL = &url
		}
	}
	if patch.DarkMode != nil {
		b.DarkMode = *patch.DarkMode
	}
}
