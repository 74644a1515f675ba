package controllers

import (
	"errors"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/services"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type MemberController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Access *services.AccessService
}

func NewMemberController(db *gorm.DB, cfg *config.Config) *MemberController {
	return &MemberController{DB: db, Cfg: cfg, Access: services.NewAccessService(db)}
}

func (mc *MemberController) findOwnedMember(c *fiber.Ctx) (*models.Project, *models.Member) {
	project := findOwnedProject(c, mc.DB, mc.Cfg)
	if project == nil {
		return nil, nil
	}

	memberID, err := strconv.Atoi(c.Params("memberId"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member ID"})
		return nil, nil
	}

	var member models.Member
	if err := mc.DB.Where("id = ? AND project_id = ?", memberID, project.ID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not query database"})
		}
		return nil, nil
	}

	return project, &member
}

// ListMembers returns the project's members, newest first. Guest accounts
// are managed separately and stay out of the member table view.
func (mc *MemberController) ListMembers(c *fiber.Ctx) error {
	project := findOwnedProject(c, mc.DB, mc.Cfg)
	if project == nil {
		return nil
	}

	var members []models.Member
	if err := mc.DB.Where("project_id = ? AND role <> ?", project.ID, models.RoleGuest).
		Order("created_at DESC").
		Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(members)
}

// CreateMember adds a member and fans out access to every currently
// published module of the project.
func (mc *MemberController) CreateMember(c *fiber.Ctx) error {
	project := findOwnedProject(c, mc.DB, mc.Cfg)
	if project == nil {
		return nil
	}

	var input struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Email == "" || input.FullName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and full name are required",
		})
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleMember && role != models.RoleGuest {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role",
		})
	}

	member := models.Member{
		ProjectID: project.ID,
		Email:     input.Email,
		FullName:  input.FullName,
		Role:      role,
		IsActive:  true,
	}

	// Only guests may go without a password.
	if role == models.RoleGuest {
		if input.Password != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Guest accounts cannot have a password",
			})
		}
	} else {
		if input.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Password is required",
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

	if err := mc.DB.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This email is already registered in this project",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create member",
		})
	}

	// New members automatically see everything already published.
	if err := mc.Access.GrantPublishedModules(&member); err != nil {
		return c.JSON(fiber.Map{
			"message": "Member created, but granting module access failed",
			"member":  member,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member created with access to all published modules",
		"member":  member,
	})
}

func (mc *MemberController) UpdateMember(c *fiber.Ctx) error {
	_, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	var input struct {
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.FullName != "" {
		member.FullName = input.FullName
	}
	if input.Password != "" {
		if member.Role == models.RoleGuest {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Guest accounts cannot have a password",
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

	if err := mc.DB.Save(member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update member",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member updated",
		"member":  member,
	})
}

// ToggleMemberStatus flips is_active, which gates login.
func (mc *MemberController) ToggleMemberStatus(c *fiber.Ctx) error {
	_, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	member.IsActive = !member.IsActive
	if err := mc.DB.Save(member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update member status",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member status updated",
		"member":  member,
	})
}

// DeleteMember removes the member with their grants, progress and
// community writes.
func (mc *MemberController) DeleteMember(c *fiber.Ctx) error {
	_, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	err := mc.DB.Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&models.CommunityPost{}).Select("id").Where("author_id = ?", member.ID)

		if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.CommunityComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", member.ID).Delete(&models.CommunityComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", member.ID).Delete(&models.CommunityPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", member.ID).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", member.ID).Delete(&models.ModuleAccess{}).Error; err != nil {
			return err
		}
		// Unscoped: the (project_id, email) slot must become reusable.
		return tx.Unscoped().Delete(&models.Member{}, member.ID).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete member",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member deleted",
	})
}

// GetMemberAccess lists the module ids granted to a member, for the
// access management dialog.
func (mc *MemberController) GetMemberAccess(c *fiber.Ctx) error {
	_, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	moduleIDs, err := mc.Access.GrantedModuleIDs(member.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"module_ids": moduleIDs,
	})
}

func (mc *MemberController) GrantAccess(c *fiber.Ctx) error {
	project, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid module ID",
		})
	}

	var module models.Module
	if err := mc.DB.Where("id = ? AND project_id = ?", moduleID, project.ID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Module not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if err := mc.Access.Grant(member.ID, module.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not grant access",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Access granted",
	})
}

func (mc *MemberController) RevokeAccess(c *fiber.Ctx) error {
	_, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid module ID",
		})
	}

	if err := mc.Access.Revoke(member.ID, uint(moduleID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not revoke access",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Access revoked",
	})
}

// GrantAllAccess grants every module of the project, drafts included.
// Safe to re-issue.
func (mc *MemberController) GrantAllAccess(c *fiber.Ctx) error {
	project, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	var moduleIDs []uint
	if err := mc.DB.Model(&models.Module{}).
		Where("project_id = ?", project.ID).
		Pluck("id", &moduleIDs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if err := mc.Access.GrantAll(member.ID, moduleIDs); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not grant access",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Full access granted",
	})
}

func (mc *MemberController) RevokeAllAccess(c *fiber.Ctx) error {
	_, member := mc.findOwnedMember(c)
	if member == nil {
		return nil
	}

	if err := mc.Access.RevokeAll(member.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not revoke access",
		})
	}

	return c.JSON(fiber.Map{
		"message": "All access revoked",
	})
}
