package controllers

import (
	"errors"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProjectController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProjectController(db *gorm.DB, cfg *config.Config) *ProjectController {
	return &ProjectController{DB: db, Cfg: cfg}
}

// findOwnedProject loads the project from the :id param and verifies the
// requesting owner actually owns it. Responds on failure and returns nil.
func findOwnedProject(c *fiber.Ctx, db *gorm.DB, cfg *config.Config) *models.Project {
	userID, err := utils.ExtractUserIDFromToken(c, cfg)
	if err != nil {
		c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		return nil
	}

	projectID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
		return nil
	}

	var project models.Project
	if err := db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not query database"})
		}
		return nil
	}

	if project.OwnerID != userID {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You don't have permission to access this project"})
		return nil
	}

	return &project
}

func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		LogoURL     string `json:"logo_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project name is required",
		})
	}

	project := models.Project{
		Name:        input.Name,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		OwnerID:     userID,
	}

	if err := pc.DB.Create(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create project",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Project created",
		"project": project,
	})
}

// GetProjects lists the owner's projects with module and member counts
// for the dashboard.
func (pc *ProjectController) GetProjects(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var projects []models.Project
	if err := pc.DB.Where("owner_id = ?", userID).Order("created_at DESC").Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var result []fiber.Map
	for _, project := range projects {
		var moduleCount, memberCount int64
		pc.DB.Model(&models.Module{}).Where("project_id = ?", project.ID).Count(&moduleCount)
		pc.DB.Model(&models.Member{}).Where("project_id = ?", project.ID).Count(&memberCount)

		result = append(result, fiber.Map{
			"id":          project.ID,
			"name":        project.Name,
			"description": project.Description,
			"logo_url":    project.LogoURL,
			"modules":     moduleCount,
			"members":     memberCount,
			"created_at":  project.CreatedAt,
		})
	}

	return c.JSON(result)
}

func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	project := findOwnedProject(c, pc.DB, pc.Cfg)
	if project == nil {
		return nil
	}

	return c.JSON(fiber.Map{
		"project": project,
	})
}

func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	project := findOwnedProject(c, pc.DB, pc.Cfg)
	if project == nil {
		return nil
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		LogoURL     string `json:"logo_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Name != "" {
		project.Name = input.Name
	}
	if input.Description != "" {
		project.Description = input.Description
	}
	if input.LogoURL != "" {
		project.LogoURL = input.LogoURL
	}

	if err := pc.DB.Save(project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update project",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Project updated",
		"project": project,
	})
}

// DeleteProject removes the project and its whole subtree: branding,
// modules, lessons, members, grants, progress and community content.
// Done explicitly in one transaction instead of relying on FK cascades.
func (pc *ProjectController) DeleteProject(c *fiber.Ctx) error {
	project := findOwnedProject(c, pc.DB, pc.Cfg)
	if project == nil {
		return nil
	}

	err := pc.DB.Transaction(func(tx *gorm.DB) error {
		moduleIDs := tx.Model(&models.Module{}).Select("id").Where("project_id = ?", project.ID)
		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("module_id IN (?)", moduleIDs)
		postIDs := tx.Model(&models.CommunityPost{}).Select("id").Where("module_id IN (?)", moduleIDs)

		if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.CommunityComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&models.CommunityPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&models.ModuleAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Module{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Member{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Branding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, project.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete project",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Project deleted",
	})
}
