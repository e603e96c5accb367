package config

import (
	"fmt"
	"time"

	"car-search-backend/db/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// AllModels defines all models that should be migrated.
// This is the only place you need to add new models
var AllModels = []interface{}{
	&models.Car{},
	&models.SearchOutboxEntry{},
}

// DatabaseDSN builds the PostgreSQL connection string from the environment
func DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		GetEnvOrDefault("DB_HOST", "localhost"),
		GetEnv("POSTGRES_USER"),
		GetEnv("POSTGRES_PASSWORD"),
		GetEnv("POSTGRES_DB"),
		GetEnvOrDefault("DB_PORT", "5432"),
		GetEnvOrDefault("DB_SSLMODE", "disable"),
		GetEnvOrDefault("DB_TIMEZONE", "UTC"),
	)
}

// ConfigureDatabase opens the PostgreSQL connection, migrates AllModels and
// configures the connection pool
func ConfigureDatabase() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := MigrateModels(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	Logger.Info("[DB-STATUS] Database setup complete")
	return db, nil
}

// MigrateModels auto-migrates every model in AllModels
func MigrateModels(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels...); err != nil {
		Logger.Error("Failed to migrate tables", zap.Error(err))
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	if err := CreateOutboxPendingIndex(db); err != nil {
		return fmt.Errorf("failed to create outbox index: %w", err)
	}
	Logger.Info("Tables migrated successfully", zap.Int("models", len(AllModels)))
	return nil
}
