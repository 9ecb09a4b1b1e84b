package database

import (
	"fmt"

	"github.com/viktsys/marketetl/config"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres and configures the pool. Callers own the returned handle.
func Open(cfg config.DatabaseConfig, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	gormLevel := logger.Silent
	if logLevel == "debug" {
		gormLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// The pipeline is single-writer; a small pool is enough.
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName))
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("Failed to get database instance for close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
}

// Migrate creates the extract, transform and warehouse schemas and their tables,
// then seeds the configured currencies.
func Migrate(db *gorm.DB, currencies []string, log *zap.Logger) error {
	if err := CreateSchemas(db); err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.Currency{},
		&models.ImportLog{},
		&models.APIImportLog{},
		&models.BtcStaging{},
		&models.GoldStaging{},
		&models.TransformLog{},
		&models.DimDate{},
		&models.FactBtc{},
		&models.FactGold{},
		&models.FactExchangeRate{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := OptimizeIndexes(db); err != nil {
		log.Warn("Failed to optimize indexes", zap.Error(err))
	}

	if err := SeedCurrencies(db, currencies); err != nil {
		return err
	}

	log.Info("Database migrated successfully")
	return nil
}
