package controllers

import (
	"errors"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/services"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var lessonContentTypes = map[string]bool{
	"video": true,
	"pdf":   true,
	"image": true,
	"text":  true,
}

type ModuleController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Access *services.AccessService
}

func NewModuleController(db *gorm.DB, cfg *config.Config) *ModuleController {
	return &ModuleController{DB: db, Cfg: cfg, Access: services.NewAccessService(db)}
}

// findOwnedModule resolves :moduleId within an owned project. Responds on
// failure and returns nil.
func (mc *ModuleController) findOwnedModule(c *fiber.Ctx) (*models.Project, *models.Module) {
	project := findOwnedProject(c, mc.DB, mc.Cfg)
	if project == nil {
		return nil, nil
	}

	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid module ID"})
		return nil, nil
	}

	var module models.Module
	if err := mc.DB.Where("id = ? AND project_id = ?", moduleID, project.ID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Module not found"})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not query database"})
		}
		return nil, nil
	}

	return project, &module
}

func (mc *ModuleController) ListModules(c *fiber.Ctx) error {
	project := findOwnedProject(c, mc.DB, mc.Cfg)
	if project == nil {
		return nil
	}

	var modules []models.Module
	if err := mc.DB.Where("project_id = ?", project.ID).
		Order("display_order ASC").
		Find(&modules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(modules)
}

func (mc *ModuleController) CreateModule(c *fiber.Ctx) error {
	project := findOwnedProject(c, mc.DB, mc.Cfg)
	if project == nil {
		return nil
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		BannerURL   string `json:"banner_url"`
		IsPublished bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Module title is required",
		})
	}

	var moduleCount int64
	mc.DB.Model(&models.Module{}).Where("project_id = ?", project.ID).Count(&moduleCount)

	module := models.Module{
		ProjectID:    project.ID,
		Title:        input.Title,
		Description:  input.Description,
		BannerURL:    input.BannerURL,
		DisplayOrder: int(moduleCount),
		IsPublished:  input.IsPublished,
	}

	if err := mc.DB.Create(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create module",
		})
	}

	// Publishing grants the module to every active member. Best-effort:
	// the module itself is already created.
	if module.IsPublished {
		if err := mc.Access.GrantModuleToActiveMembers(&module); err != nil {
			return c.JSON(fiber.Map{
				"message": "Module created, but granting access to members failed",
				"module":  module,
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Module created",
		"module":  module,
	})
}

func (mc *ModuleController) UpdateModule(c *fiber.Ctx) error {
	_, module := mc.findOwnedModule(c)
	if module == nil {
		return nil
	}

	var input struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		BannerURL    string `json:"banner_url"`
		DisplayOrder *int   `json:"display_order"`
		IsPublished  *bool  `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	wasPublished := module.IsPublished

	if input.Title != "" {
		module.Title = input.Title
	}
	if input.Description != "" {
		module.Description = input.Description
	}
	if input.BannerURL != "" {
		module.BannerURL = input.BannerURL
	}
	if input.DisplayOrder != nil {
		module.DisplayOrder = *input.DisplayOrder
	}
	if input.IsPublished != nil {
		module.IsPublished = *input.IsPublished
	}

	if err := mc.DB.Save(module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update module",
		})
	}

	// Fan out grants on the unpublished -> published transition. Repeats
	// are harmless: grants insert as a set.
	if !wasPublished && module.IsPublished {
		if err := mc.Access.GrantModuleToActiveMembers(module); err != nil {
			return c.JSON(fiber.Map{
				"message": "Module updated, but granting access to members failed",
				"module":  module,
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Module updated",
		"module":  module,
	})
}

// DeleteModule removes the module with its lessons, lesson progress,
// access grants and community content in one transaction so orphaned
// grants never accumulate.
func (mc *ModuleController) DeleteModule(c *fiber.Ctx) error {
	_, module := mc.findOwnedModule(c)
	if module == nil {
		return nil
	}

	err := mc.DB.Transaction(func(tx *gorm.DB) error {
		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("module_id = ?", module.ID)
		postIDs := tx.Model(&models.CommunityPost{}).Select("id").Where("module_id = ?", module.ID)

		if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.CommunityComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", module.ID).Delete(&models.CommunityPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", module.ID).Delete(&models.ModuleAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", module.ID).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Module{}, module.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete module",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Module deleted",
	})
}

func (mc *ModuleController) ListLessons(c *fiber.Ctx) error {
	_, module := mc.findOwnedModule(c)
	if module == nil {
		return nil
	}

	var lessons []models.Lesson
	if err := mc.DB.Where("module_id = ?", module.ID).
		Order("display_order ASC").
		Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(lessons)
}

func (mc *ModuleController) CreateLesson(c *fiber.Ctx) error {
	_, module := mc.findOwnedModule(c)
	if module == nil {
		return nil
	}

	var input struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		Content         string `json:"content"`
		ContentType     string `json:"content_type"`
		FileURL         string `json:"file_url"`
		DurationMinutes *int   `json:"duration_minutes"`
		IsPublished     bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Lesson title is required",
		})
	}
	if input.ContentType == "" {
		input.ContentType = "text"
	}
	if !lessonContentTypes[input.ContentType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content type",
		})
	}
	if input.DurationMinutes != nil && *input.DurationMinutes < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Duration cannot be negative",
		})
	}

	var lessonCount int64
	mc.DB.Model(&models.Lesson{}).Where("module_id = ?", module.ID).Count(&lessonCount)

	lesson := models.Lesson{
		ModuleID:        module.ID,
		Title:           input.Title,
		Description:     input.Description,
		Content:         input.Content,
		ContentType:     input.ContentType,
		FileURL:         input.FileURL,
		DurationMinutes: input.DurationMinutes,
		DisplayOrder:    int(lessonCount),
		IsPublished:     input.IsPublished,
	}

	if err := mc.DB.Create(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create lesson",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lesson added",
		"lesson":  lesson,
	})
}

func (mc *ModuleController) UpdateLesson(c *fiber.Ctx) error {
	_, module := mc.findOwnedModule(c)
	if module == nil {
		return nil
	}

	lessonID, err := strconv.Atoi(c.Params("lessonId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := mc.DB.Where("id = ? AND module_id = ?", lessonID, module.ID).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var input struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		Content         string `json:"content"`
		ContentType     string `json:"content_type"`
		FileURL         string `json:"file_url"`
		DurationMinutes *int   `json:"duration_minutes"`
		DisplayOrder    *int   `json:"display_order"`
		IsPublished     *bool  `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title != "" {
		lesson.Title = input.Title
	}
	if input.Description != "" {
		lesson.Description = input.Description
	}
	if input.Content != "" {
		lesson.Content = input.Content
	}
	if input.ContentType != "" {
		if !lessonContentTypes[input.ContentType] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid content type",
			})
		}
		lesson.ContentType = input.ContentType
	}
	if input.FileURL != "" {
		lesson.FileURL = input.FileURL
	}
	if input.DurationMinutes != nil {
		if *input.DurationMinutes < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Duration cannot be negative",
			})
		}
		lesson.DurationMinutes = input.DurationMinutes
	}
	if input.DisplayOrder != nil {
		lesson.DisplayOrder = *input.DisplayOrder
	}
	if input.IsPublished != nil {
		lesson.IsPublished = *input.IsPublished
	}

	if err := mc.DB.Save(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update lesson",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lesson updated",
		"lesson":  lesson,
	})
}

// DeleteLesson cascades the lesson's progress rows and its comment thread.
func (mc *ModuleController) DeleteLesson(c *fiber.Ctx) error {
	_, module := mc.findOwnedModule(c)
	if module == nil {
		return nil
	}

	lessonID, err := strconv.Atoi(c.Params("lessonId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := mc.DB.Where("id = ? AND module_id = ?", lessonID, module.ID).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	err = mc.DB.Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&models.CommunityPost{}).Select("id").Where("lesson_id = ?", lesson.ID)

		if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.CommunityComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&models.CommunityPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lesson{}, lesson.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete lesson",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lesson deleted",
	})
}
