package services

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/internal/utils"
)

func init() {
	utils.SetJWTSecret("test-secret")
}

// newTestDB opens an isolated in-memory database for one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserSkill{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Application{},
		&models.SkillSwap{},
		&models.SwapMessage{},
		&models.SwapStatusHistory{},
		&models.Notification{},
		&models.SideEffectTask{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	InitSystemLogger(db)
	t.Cleanup(func() {
		globalLogDB = nil
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// singleConn limits the pool to one connection so concurrency tests can
// race goroutines through a service without sqlite busy errors.
func singleConn(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "x",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, creatorID uint, title string) *models.Project {
	t.Helper()
	project := &models.Project{
		CreatorID:   creatorID,
		Title:       title,
		Description: "test project",
		Status:      "open",
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("create project %s: %v", title, err)
	}
	return project
}
