package models

import (
	"fmt"

	"github.com/skillhive/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// TranslateError maps driver-specific unique-constraint violations to
	// gorm.ErrDuplicatedKey, which the lifecycle engine relies on to turn
	// racing inserts into Conflict responses.
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&UserSkill{},
		&Project{},
		&ProjectMember{},
		&Application{},
		&SkillSwap{},
		&SwapMessage{},
		&SwapStatusHistory{},
		&Notification{},
		&SideEffectTask{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
