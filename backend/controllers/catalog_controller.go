package controllers

import (
	"errors"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/services"
	"memberspace/backend/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogController serves the member area: the module catalog filtered
// by grants and publication, lesson progress and the member profile.
type CatalogController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Access *services.AccessService
}

func NewCatalogController(db *gorm.DB, cfg *config.Config) *CatalogController {
	return &CatalogController{DB: db, Cfg: cfg, Access: services.NewAccessService(db)}
}

// currentMember resolves the member of the session token. Responds on
// failure and returns nil.
func (cc *CatalogController) currentMember(c *fiber.Ctx) *models.Member {
	memberID, projectID, err := utils.ExtractMemberFromToken(c, cc.Cfg)
	if err != nil {
		c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		return nil
	}

	var member models.Member
	if err := cc.DB.Where("id = ? AND project_id = ?", memberID, projectID).First(&member).Error; err != nil {
		c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		return nil
	}

	if !member.IsActive {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Your account is inactive. Contact the administrator."})
		return nil
	}

	return &member
}

// GetCatalog returns the modules this member may see: granted AND
// published, with their published lessons and the member's progress.
// Publication is the necessary condition, a grant the sufficient one on
// top of it; unpublished modules stay hidden even when granted.
func (cc *CatalogController) GetCatalog(c *fiber.Ctx) error {
	member := cc.currentMember(c)
	if member == nil {
		return nil
	}

	grantedIDs, err := cc.Access.GrantedModuleIDs(member.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var modules []models.Module
	if len(grantedIDs) > 0 {
		if err := cc.DB.Where("project_id = ? AND is_published = ? AND id IN ?", member.ProjectID, true, grantedIDs).
			Order("display_order ASC").
			Find(&modules).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}
	}

	var progress []models.LessonProgress
	cc.DB.Where("member_id = ?", member.ID).Find(&progress)
	completedLessons := lo.SliceToMap(progress, func(p models.LessonProgress) (uint, bool) {
		return p.LessonID, p.Completed
	})

	var result []fiber.Map
	for _, module := range modules {
		var lessons []models.Lesson
		cc.DB.Where("module_id = ? AND is_published = ?", module.ID, true).
			Order("display_order ASC").
			Find(&lessons)

		lessonMaps := lo.Map(lessons, func(lesson models.Lesson, _ int) fiber.Map {
			return fiber.Map{
				"id":               lesson.ID,
				"title":            lesson.Title,
				"description":      lesson.Description,
				"content":          lesson.Content,
				"content_type":     lesson.ContentType,
				"file_url":         lesson.FileURL,
				"duration_minutes": lesson.DurationMinutes,
				"display_order":    lesson.DisplayOrder,
				"completed":        completedLessons[lesson.ID],
			}
		})

		result = append(result, fiber.Map{
			"id":            module.ID,
			"title":         module.Title,
			"description":   module.Description,
			"banner_url":    module.BannerURL,
			"display_order": module.DisplayOrder,
			"lessons":       lessonMaps,
		})
	}

	return c.JSON(fiber.Map{
		"modules": result,
	})
}

// ToggleLessonProgress marks a lesson complete (upsert) or clears the
// completion row entirely.
func (cc *CatalogController) ToggleLessonProgress(c *fiber.Ctx) error {
	member := cc.currentMember(c)
	if member == nil {
		return nil
	}

	lessonID, err := c.ParamsInt("lessonId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var input struct {
		Completed bool `json:"completed"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var lesson models.Lesson
	if err := cc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// The lesson must be reachable through the member's catalog.
	var module models.Module
	if err := cc.DB.Where("id = ? AND project_id = ? AND is_published = ?", lesson.ModuleID, member.ProjectID, true).
		First(&module).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this lesson",
		})
	}
	hasAccess, err := cc.Access.HasAccess(member.ID, module.ID)
	if err != nil || !hasAccess {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this lesson",
		})
	}

	if !input.Completed {
		if err := cc.DB.Where("member_id = ? AND lesson_id = ?", member.ID, lesson.ID).
			Delete(&models.LessonProgress{}).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not save progress",
			})
		}
		return c.JSON(fiber.Map{
			"message":   "Progress updated",
			"completed": false,
		})
	}

	now := time.Now()
	record := models.LessonProgress{
		MemberID:    member.ID,
		LessonID:    lesson.ID,
		Completed:   true,
		CompletedAt: &now,
	}
	if err := cc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at"}),
	}).Create(&record).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save progress",
		})
	}

	return c.JSON(fiber.Map{
		"message":   "Progress updated",
		"completed": true,
	})
}

func (cc *CatalogController) GetProfile(c *fiber.Ctx) error {
	member := cc.currentMember(c)
	if member == nil {
		return nil
	}

	var completedCount int64
	cc.DB.Model(&models.LessonProgress{}).
		Where("member_id = ? AND completed = ?", member.ID, true).
		Count(&completedCount)

	return c.JSON(fiber.Map{
		"id":                member.ID,
		"email":             member.Email,
		"full_name":         member.FullName,
		"role":              member.Role,
		"profile_photo_url": member.ProfilePhotoURL,
		"last_login":        member.LastLogin,
		"lessons_completed": completedCount,
	})
}

// UpdateProfile lets a member change their own name, photo and password.
func (cc *CatalogController) UpdateProfile(c *fiber.Ctx) error {
	member := cc.currentMember(c)
	if member == nil {
		return nil
	}

	var input struct {
		FullName        string `json:"full_name"`
		ProfilePhotoURL string `json:"profile_photo_url"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.FullName != "" {
		member.FullName = input.FullName
	}
	if input.ProfilePhotoURL != "" {
		member.ProfilePhotoURL = input.ProfilePhotoURL
	}
	if input.Password != "" {
		if member.Role == models.RoleGuest {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Guest accounts cannot have a password",
			})
		}
		if input.Password != input.PasswordConfirm {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Passwords do not match",
			})
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not hash password",
			})
		}
		hash := string(hashedPassword)
		member.PasswordHash = &hash
	}

	if err := cc.DB.Save(member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update profile",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"member":  member,
	})
}
