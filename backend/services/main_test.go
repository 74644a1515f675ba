package services

import (
	"fmt"
	"memberspace/backend/utils"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory database per test so tests cannot
// leak state into each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := utils.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}
