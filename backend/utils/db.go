package utils

import (
	"fmt"
	"memberspace/backend/config"
	"memberspace/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey so controllers can answer 409.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Branding{},
		&models.Module{},
		&models.Lesson{},
		&models.Member{},
		&models.ModuleAccess{},
		&models.LessonProgress{},
		&models.CommunityPost{},
		&models.CommunityComment{},
	)
}
