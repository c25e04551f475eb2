// db.go
//
// In-memory database for tests. Every call returns an isolated, migrated
// SQLite database so tests never share rows.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/princeprakhar/marketplace-backend/internal/database"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory database and runs the production migrations on it.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Each connection to :memory: is its own database; pin the pool to one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser inserts a user with the given email and role.
func SeedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: role, IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProduct inserts an active product with the given slug.
func SeedProduct(t *testing.T, db *gorm.DB, slug string) *models.Product {
	t.Helper()
	p := &models.Product{Name: slug, Slug: slug, Category: "analytics", IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// SeedLaunch inserts a live launch for the product.
func SeedLaunch(t *testing.T, db *gorm.DB, productID uint) *models.Launch {
	t.Helper()
	l := &models.Launch{ProductID: productID, Title: "Launch", Tagline: "Ship it", Status: models.LaunchLive}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed launch: %v", err)
	}
	return l
}
