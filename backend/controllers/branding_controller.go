package controllers

import (
	"errors"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BrandingController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Branding *services.BrandingService
}

func NewBrandingController(db *gorm.DB, cfg *config.Config) *BrandingController {
	return &BrandingController{
		DB:       db,
		Cfg:      cfg,
		Branding: services.NewBrandingService(db),
	}
}

// GetBranding returns the project branding, creating the default row on
// first read. A storage error still yields a usable default set, flagged
// so the client can show a non-fatal notice.
func (bc *BrandingController) GetBranding(c *fiber.Ctx) error {
	project := findOwnedProject(c, bc.DB, bc.Cfg)
	if project == nil {
		return nil
	}

	branding, err := bc.Branding.Load(project.ID)
	if err != nil {
		return c.JSON(fiber.Map{
			"branding": branding,
			"warning":  "Could not load saved design settings, showing defaults",
		})
	}

	return c.JSON(fiber.Map{
		"branding": branding,
	})
}

func (bc *BrandingController) SaveBranding(c *fiber.Ctx) error {
	project := findOwnedProject(c, bc.DB, bc.Cfg)
	if project == nil {
		return nil
	}

	var patch services.BrandingPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	branding, err := bc.Branding.Save(project.ID, patch)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Design updated",
		"branding": branding,
	})
}

func (bc *BrandingController) ResetBranding(c *fiber.Ctx) error {
	project := findOwnedProject(c, bc.DB, bc.Cfg)
	if project == nil {
		return nil
	}

	branding, err := bc.Branding.Reset(project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not reset design",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Design reset to defaults",
		"branding": branding,
	})
}

// GetTheme projects the branding onto the CSS variable map consumed by
// the member-facing views. Public: the member login page is themed before
// any session exists.
func (bc *BrandingController) GetTheme(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var project models.Project
	if err := bc.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Project not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	branding, _ := bc.Branding.Load(project.ID)

	return c.JSON(fiber.Map{
		"variables": bc.Branding.ThemeVars(branding),
		"dark_mode": branding.DarkMode,
		"logo_url":  branding.CustomLogoURL,
	})
}
