package controllers

import (
	"errors"
	"memberspace/backend/config"
	"memberspace/backend/models"
	"memberspace/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// CommunityController handles module feed posts, per-lesson comment
// threads and comments. Member-authored HTML is sanitized before it is
// stored; owner-authored lesson content stays trusted.
type CommunityController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Access    *services.AccessService
	sanitizer *bluemonday.Policy
}

func NewCommunityController(db *gorm.DB, cfg *config.Config) *CommunityController {
	return &CommunityController{
		DB:        db,
		Cfg:       cfg,
		Access:    services.NewAccessService(db),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// memberModule checks that the session member may interact with the
// module: it must belong to their project, be published and be granted.
func (cmc *CommunityController) memberModule(c *fiber.Ctx, member *models.Member, moduleID int) *models.Module {
	var module models.Module
	if err := cmc.DB.Where("id = ? AND project_id = ?", moduleID, member.ProjectID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Module not found"})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not query database"})
		}
		return nil
	}

	hasAccess, err := cmc.Access.HasAccess(member.ID, module.ID)
	if err != nil || !hasAccess || !module.IsPublished {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You don't have access to this module"})
		return nil
	}

	return &module
}

func (cmc *CommunityController) currentMember(c *fiber.Ctx) *models.Member {
	catalog := CatalogController{DB: cmc.DB, Cfg: cmc.Cfg}
	return catalog.currentMember(c)
}

// ListPosts returns the module feed: posts without a lesson binding,
// newest first, with authors resolved.
func (cmc *CommunityController) ListPosts(c *fiber.Ctx) error {
	member := cmc.currentMember(c)
	if member == nil {
		return nil
	}

	moduleID, err := c.ParamsInt("moduleId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid module ID",
		})
	}

	module := cmc.memberModule(c, member, moduleID)
	if module == nil {
		return nil
	}

	var posts []models.CommunityPost
	if err := cmc.DB.Preload("Comments").
		Where("module_id = ? AND lesson_id IS NULL", module.ID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(cmc.renderPosts(posts))
}

// ListModulePosts is the owner's moderation view of a module's community
// content: the whole feed, lesson threads included.
func (cmc *CommunityController) ListModulePosts(c *fiber.Ctx) error {
	project := findOwnedProject(c, cmc.DB, cmc.Cfg)
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
	if err := cmc.DB.Where("id = ? AND project_id = ?", moduleID, project.ID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Module not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var posts []models.CommunityPost
	if err := cmc.DB.Preload("Comments").
		Where("module_id = ?", module.ID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(cmc.renderPosts(posts))
}

func (cmc *CommunityController) CreatePost(c *fiber.Ctx) error {
	member := cmc.currentMember(c)
	if member == nil {
		return nil
	}

	moduleID, err := c.ParamsInt("moduleId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid module ID",
		})
	}

	module := cmc.memberModule(c, member, moduleID)
	if module == nil {
		return nil
	}

	var input struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Post title is required",
		})
	}

	post := models.CommunityPost{
		ModuleID: module.ID,
		AuthorID: member.ID,
		Title:    input.Title,
		Content:  cmc.sanitizer.Sanitize(input.Content),
	}

	if err := cmc.DB.Create(&post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create post",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Post created",
		"post":    post,
	})
}

// GetLessonThread returns the comment thread of a lesson, creating it on
// first read. Threads are posts keyed by (module_id, lesson_id) — no
// title-marker convention.
func (cmc *CommunityController) GetLessonThread(c *fiber.Ctx) error {
	member := cmc.currentMember(c)
	if member == nil {
		return nil
	}

	post, ok := cmc.lessonThread(c, member)
	if !ok {
		return nil
	}

	var comments []models.CommunityComment
	if err := cmc.DB.Where("post_id = ?", post.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"thread_id": post.ID,
		"comments":  cmc.renderComments(comments),
	})
}

func (cmc *CommunityController) AddLessonComment(c *fiber.Ctx) error {
	member := cmc.currentMember(c)
	if member == nil {
		return nil
	}

	post, ok := cmc.lessonThread(c, member)
	if !ok {
		return nil
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Comment content is required",
		})
	}

	comment := models.CommunityComment{
		PostID:   post.ID,
		AuthorID: member.ID,
		Content:  cmc.sanitizer.Sanitize(input.Content),
	}

	if err := cmc.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create comment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Comment added",
		"comment": comment,
	})
}

func (cmc *CommunityController) AddComment(c *fiber.Ctx) error {
	member := cmc.currentMember(c)
	if member == nil {
		return nil
	}

	postID, err := c.ParamsInt("postId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	var post models.CommunityPost
	if err := cmc.DB.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if module := cmc.memberModule(c, member, int(post.ModuleID)); module == nil {
		return nil
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Comment content is required",
		})
	}

	comment := models.CommunityComment{
		PostID:   post.ID,
		AuthorID: member.ID,
		Content:  cmc.sanitizer.Sanitize(input.Content),
	}

	if err := cmc.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create comment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Comment added",
		"comment": comment,
	})
}

// lessonThread resolves (find-or-create) the thread post of the lesson in
// the :lessonId param, after checking module access.
func (cmc *CommunityController) lessonThread(c *fiber.Ctx, member *models.Member) (*models.CommunityPost, bool) {
	lessonID, err := c.ParamsInt("lessonId")
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson ID"})
		return nil, false
	}

	var lesson models.Lesson
	if err := cmc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
		} else {
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not query database"})
		}
		return nil, false
	}

	module := cmc.memberModule(c, member, int(lesson.ModuleID))
	if module == nil {
		return nil, false
	}

	var post models.CommunityPost
	err = cmc.DB.Where("module_id = ? AND lesson_id = ?", module.ID, lesson.ID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lessonRef := lesson.ID
		post = models.CommunityPost{
			ModuleID: module.ID,
			LessonID: &lessonRef,
			AuthorID: member.ID,
			Title:    lesson.Title,
		}
		err = cmc.DB.Create(&post).Error
	}
	if err != nil {
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load comment thread"})
		return nil, false
	}

	return &post, true
}

func (cmc *CommunityController) renderPosts(posts []models.CommunityPost) []fiber.Map {
	result := make([]fiber.Map, 0, len(posts))
	for _, post := range posts {
		var author models.Member
		cmc.DB.First(&author, post.AuthorID)

		result = append(result, fiber.Map{
			"id":              post.ID,
			"title":           post.Title,
			"content":         post.Content,
			"reactions_count": post.ReactionsCount,
			"created_at":      post.CreatedAt,
			"author": fiber.Map{
				"id":                author.ID,
				"full_name":         author.FullName,
				"profile_photo_url": author.ProfilePhotoURL,
			},
			"comments": cmc.renderComments(post.Comments),
		})
	}
	return result
}

func (cmc *CommunityController) renderComments(comments []models.CommunityComment) []fiber.Map {
	result := make([]fiber.Map, 0, len(comments))
	for _, comment := range comments {
		var author models.Member
		cmc.DB.First(&author, comment.AuthorID)

		result = append(result, fiber.Map{
			"id":         comment.ID,
			"content":    comment.Content,
			"created_at": comment.CreatedAt,
			"author": fiber.Map{
				"id":                author.ID,
				"full_name":         author.FullName,
				"profile_photo_url": author.ProfilePhotoURL,
			},
		})
	}
	return result
}
