package controllers

import (
	"memberspace/backend/config"
	"memberspace/backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg}
}

// GetProjectAnalytics returns project-wide totals for the analytics tab.
func (ac *AnalyticsController) GetProjectAnalytics(c *fiber.Ctx) error {
	project := findOwnedProject(c, ac.DB, ac.Cfg)
	if project == nil {
		return nil
	}

	var memberCount, activeMemberCount, moduleCount, publishedModuleCount, lessonCount int64
	ac.DB.Model(&models.Member{}).Where("project_id = ?", project.ID).Count(&memberCount)
	ac.DB.Model(&models.Member{}).Where("project_id = ? AND is_active = ?", project.ID, true).Count(&activeMemberCount)
	ac.DB.Model(&models.Module{}).Where("project_id = ?", project.ID).Count(&moduleCount)
	ac.DB.Model(&models.Module{}).Where("project_id = ? AND is_published = ?", project.ID, true).Count(&publishedModuleCount)

	moduleIDs := ac.DB.Model(&models.Module{}).Select("id").Where("project_id = ?", project.ID)
	ac.DB.Model(&models.Lesson{}).Where("module_id IN (?)", moduleIDs).Count(&lessonCount)

	lessonIDs := ac.DB.Model(&models.Lesson{}).Select("id").Where("module_id IN (?)", moduleIDs)
	var completions int64
	ac.DB.Model(&models.LessonProgress{}).
		Where("lesson_id IN (?) AND completed = ?", lessonIDs, true).
		Count(&completions)

	// Completion rate over the member x lesson grid.
	var completionRate float64
	if memberCount > 0 && lessonCount > 0 {
		completionRate = float64(completions) / float64(memberCount*lessonCount) * 100
	}

	return c.JSON(fiber.Map{
		"members":           memberCount,
		"active_members":    activeMemberCount,
		"modules":           moduleCount,
		"published_modules": publishedModuleCount,
		"lessons":           lessonCount,
		"completions":       completions,
		"completion_rate":   completionRate,
	})
}

// GetModuleAnalytics returns the per-member completion table of a module.
func (ac *AnalyticsController) GetModuleAnalytics(c *fiber.Ctx) error {
	project := findOwnedProject(c, ac.DB, ac.Cfg)
	if project == nil {
		return nil
	}

	moduleID, err := c.ParamsInt("moduleId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid module ID",
		})
	}

	var module models.Module
	if err := ac.DB.Where("id = ? AND project_id = ?", moduleID, project.ID).First(&module).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Module not found",
		})
	}

	var lessonCount int64
	ac.DB.Model(&models.Lesson{}).Where("module_id = ?", module.ID).Count(&lessonCount)

	var grants []models.ModuleAccess
	if err := ac.DB.Where("module_id = ?", module.ID).Find(&grants).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	lessonIDs := ac.DB.Model(&models.Lesson{}).Select("id").Where("module_id = ?", module.ID)

	var rows []fiber.Map
	for _, grant := range grants {
		var member models.Member
		if err := ac.DB.First(&member, grant.MemberID).Error; err != nil {
			continue
		}

		var completed int64
		ac.DB.Model(&models.LessonProgress{}).
			Where("member_id = ? AND lesson_id IN (?) AND completed = ?", member.ID, lessonIDs, true).
			Count(&completed)

		var rate float64
		if lessonCount > 0 {
			rate = float64(completed) / float64(lessonCount) * 100
		}

		rows = append(rows, fiber.Map{
			"member_id":         member.ID,
			"full_name":         member.FullName,
			"email":             member.Email,
			"lessons_completed": completed,
			"completion_rate":   rate,
			"last_login":        member.LastLogin,
		})
	}

	return c.JSON(fiber.Map{
		"module_id": module.ID,
		"title":     module.Title,
		"lessons":   lessonCount,
		"analytics": rows,
	})
}
