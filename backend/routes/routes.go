package routes

import (
	"memberspace/backend/config"
	"memberspace/backend/controllers"
	"memberspace/backend/middleware"
	"memberspace/backend/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, store *storage.Client) {
	// Owner auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	memberMiddleware := middleware.MemberMiddleware(cfg)

	// The theme projection is public so the member login page can be
	// styled before any session exists. Registered ahead of the guarded
	// project group: matching stops here and never reaches the guard.
	brandingController := controllers.NewBrandingController(db, cfg)
	app.Get("/api/projects/:id/theme", brandingController.GetTheme)

	// Project routes
	projectController := controllers.NewProjectController(db, cfg)
	projects := app.Group("/api/projects", authMiddleware)
	projects.Get("/", projectController.GetProjects)
	projects.Post("/", projectController.CreateProject)
	projects.Get("/:id", projectController.GetProject)
	projects.Put("/:id", projectController.UpdateProject)
	projects.Delete("/:id", projectController.DeleteProject)

	// Branding routes
	projects.Get("/:id/branding", brandingController.GetBranding)
	projects.Put("/:id/branding", brandingController.SaveBranding)
	projects.Post("/:id/branding/reset", brandingController.ResetBranding)

	// Content routes
	moduleController := controllers.NewModuleController(db, cfg)
	projects.Get("/:id/modules", moduleController.ListModules)
	projects.Post("/:id/modules", moduleController.CreateModule)
	projects.Put("/:id/modules/:moduleId", moduleController.UpdateModule)
	projects.Delete("/:id/modules/:moduleId", moduleController.DeleteModule)
	projects.Get("/:id/modules/:moduleId/lessons", moduleController.ListLessons)
	projects.Post("/:id/modules/:moduleId/lessons", moduleController.CreateLesson)
	projects.Put("/:id/modules/:moduleId/lessons/:lessonId", moduleController.UpdateLesson)
	projects.Delete("/:id/modules/:moduleId/lessons/:lessonId", moduleController.DeleteLesson)

	// Member management routes
	memberController := controllers.NewMemberController(db, cfg)
	projects.Get("/:id/members", memberController.ListMembers)
	projects.Post("/:id/members", memberController.CreateMember)
	projects.Put("/:id/members/:memberId", memberController.UpdateMember)
	projects.Post("/:id/members/:memberId/toggle", memberController.ToggleMemberStatus)
	projects.Delete("/:id/members/:memberId", memberController.DeleteMember)
	projects.Get("/:id/members/:memberId/access", memberController.GetMemberAccess)
	projects.Post("/:id/members/:memberId/access/:moduleId", memberController.GrantAccess)
	projects.Delete("/:id/members/:memberId/access/:moduleId", memberController.RevokeAccess)
	projects.Post("/:id/members/:memberId/access", memberController.GrantAllAccess)
	projects.Delete("/:id/members/:memberId/access", memberController.RevokeAllAccess)

	// Analytics routes
	analyticsController := controllers.NewAnalyticsController(db, cfg)
	projects.Get("/:id/analytics", analyticsController.GetProjectAnalytics)
	projects.Get("/:id/modules/:moduleId/analytics", analyticsController.GetModuleAnalytics)

	// Upload routes
	uploadController := controllers.NewUploadController(db, cfg, store)
	projects.Post("/:id/uploads", uploadController.UploadFile)
	projects.Delete("/:id/uploads", uploadController.DeleteFile)

	// Member area routes
	memberAuthController := controllers.NewMemberAuthController(db, cfg)
	app.Post("/api/member/:id/login", memberAuthController.Login)

	catalogController := controllers.NewCatalogController(db, cfg)
	memberArea := app.Group("/api/member/area", memberMiddleware)
	memberArea.Get("/catalog", catalogController.GetCatalog)
	memberArea.Post("/lessons/:lessonId/progress", catalogController.ToggleLessonProgress)
	memberArea.Get("/profile", catalogController.GetProfile)
	memberArea.Put("/profile", catalogController.UpdateProfile)

	// Community routes
	communityController := controllers.NewCommunityController(db, cfg)
	projects.Get("/:id/modules/:moduleId/posts", communityController.ListModulePosts)
	memberArea.Get("/modules/:moduleId/posts", communityController.ListPosts)
	memberArea.Post("/modules/:moduleId/posts", communityController.CreatePost)
	memberArea.Post("/posts/:postId/comments", communityController.AddComment)
	memberArea.Get("/lessons/:lessonId/comments", communityController.GetLessonThread)
	memberArea.Post("/lessons/:lessonId/comments", communityController.AddLessonComment)
}
