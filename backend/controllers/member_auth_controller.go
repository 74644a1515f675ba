package controllers

import (
	"errors"
	"log"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/utils"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type MemberAuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewMemberAuthController(db *gorm.DB, cfg *config.Config) *MemberAuthController {
	return &MemberAuthController{DB: db, Cfg: cfg}
}

// Login authenticates a member of a project. Credential failures are all
// reported as the same generic message; the inactive-account case is
// intentionally distinguished so members know to contact the owner.
func (mac *MemberAuthController) Login(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var member models.Member
	if err := mac.DB.Where("project_id = ? AND email = ?", projectID, input.Email).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Incorrect email or password",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !member.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Your account is inactive. Contact the administrator.",
		})
	}

	// Guests are admitted without a password check; a missing hash on any
	// other role fails like a wrong password.
	if member.Role != models.RoleGuest {
		if member.PasswordHash == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Incorrect email or password",
			})
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*member.PasswordHash), []byte(input.Password)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Incorrect email or password",
			})
		}
	}

	// A failed stamp must not fail the login.
	now := time.Now()
	member.LastLogin = &now
	if err := mac.DB.Save(&member).Error; err != nil {
		log.Printf("could not stamp last_login for member %d: %v", member.ID, err)
	}

	token, err := utils.GenerateMemberToken(member.ID, member.ProjectID, mac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"session": fiber.Map{
			"member_id":         member.ID,
			"email":             member.Email,
			"full_name":         member.FullName,
			"project_id":        member.ProjectID,
			"profile_photo_url": member.ProfilePhotoURL,
		},
	})
}
