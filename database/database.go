package database

import (
	"log"
	"log/slog"

	"billing-dashboard/internal/domain/billing"
	"billing-dashboard/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(dsn string, debug bool) {
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		&users.User{},
		&billing.Purchase{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	slog.Info("database connected and migrated")
}
