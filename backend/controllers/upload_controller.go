package controllers

import (
	"memberspace/backend/config"
	"memberspace/backend/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UploadController moves files in and out of the object store. Uploads
// and the database writes that reference them are separate requests, so
// a failure in between can leave an orphaned object behind.
type UploadController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Storage *storage.Client
}

func NewUploadController(db *gorm.DB, cfg *config.Config, store *storage.Client) *UploadController {
	return &UploadController{DB: db, Cfg: cfg, Storage: store}
}

// UploadFile stores a multipart file under the requested prefix
// (branding, profiles or content) and returns its public URL.
func (uc *UploadController) UploadFile(c *fiber.Ctx) error {
	if uc.Storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File storage is not configured",
		})
	}

	project := findOwnedProject(c, uc.DB, uc.Cfg)
	if project == nil {
		return nil
	}

	prefix := c.Query("prefix", storage.PrefixContent)
	if !storage.ValidPrefix(prefix) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid storage prefix",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing file",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read file",
		})
	}
	defer file.Close()

	url, err := uc.Storage.Upload(
		c.Context(),
		prefix,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not upload file",
		})
	}

	return c.JSON(fiber.Map{
		"url": url,
	})
}

// DeleteFile removes a stored object by its public URL.
func (uc *UploadController) DeleteFile(c *fiber.Ctx) error {
	if uc.Storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File storage is not configured",
		})
	}

	project := findOwnedProject(c, uc.DB, uc.Cfg)
	if project == nil {
		return nil
	}

	var input struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&input); err != nil || input.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File URL is required",
		})
	}

	if err := uc.Storage.Delete(c.Context(), input.URL); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not delete file",
		})
	}

	return c.JSON(fiber.Map{
		"message": "File deleted",
	})
}
