package database

import (
	"fmt"

	"github.com/viktsys/marketetl/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var schemas = []string{"extract", "transform", "warehouse"}

// CreateSchemas creates the per-stage postgres schemas.
func CreateSchemas(db *gorm.DB) error {
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}
	return nil
}

// OptimizeIndexes creates the lookup indexes used by the transform and load stages
func OptimizeIndexes(db *gorm.DB) error {
	// pending-file lookup joins import_log to transform_log by file name
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_import_log_dir_batch
		ON extract.import_log (import_directory_name, batch_date DESC)
	`).Error; err != nil {
		return fmt.Errorf("failed to create import log index: %w", err)
	}

	// dim_date population scans staging dates
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_btc_data_import_date
		ON transform.btc_data_import (date)
	`).Error; err != nil {
		return fmt.Errorf("failed to create btc staging date index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_gold_data_import_date
		ON transform.gold_data_import (date)
	`).Error; err != nil {
		return fmt.Errorf("failed to create gold staging date index: %w", err)
	}

	// read API filters facts by currency and date range
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_fact_btc_currency_date
		ON warehouse.fact_btc (currency_id, date DESC)
	`).Error; err != nil {
		return fmt.Errorf("failed to create fact_btc index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_fact_gold_currency_date
		ON warehouse.fact_gold (currency_id, date DESC)
	`).Error; err != nil {
		return fmt.Errorf("failed to create fact_gold index: %w", err)
	}

	return nil
}

// SeedCurrencies inserts the configured currency codes, leaving existing ones untouched.
func SeedCurrencies(db *gorm.DB, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	currencies := make([]models.Currency, 0, len(codes))
	for _, code := range codes {
		currencies = append(currencies, models.Currency{Code: code})
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&currencies).Error
	if err != nil {
		return fmt.Errorf("failed to seed currencies: %w", err)
	}
	return nil
}
