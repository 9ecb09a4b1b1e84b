package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/marketetl/models"
	"gorm.io/gorm"
)

// Repository answers the read API from the warehouse fact tables.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BtcStats(ctx context.Context, currencyID uint, since time.Time) (models.BtcStats, error) {
	var result struct {
		Days      int64
		MaxClose  decimal.Decimal
		MaxVolume decimal.Decimal
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS days,
			COALESCE(MAX(close), 0) AS max_close,
			COALESCE(MAX(volume), 0) AS max_volume
		FROM warehouse.fact_btc
		WHERE currency_id = ? AND date >= ?
	`, currencyID, since).Scan(&result).Error
	if err != nil {
		return models.BtcStats{}, fmt.Errorf("failed to aggregate fact_btc: %w", err)
	}

	return models.BtcStats{
		Days:      result.Days,
		MaxClose:  result.MaxClose,
		MaxVolume: result.MaxVolume,
	}, nil
}

func (r *Repository) GoldStats(ctx context.Context, currencyID uint, since time.Time) (models.GoldStats, error) {
	var result struct {
		Days        int64
		MaxPrice    decimal.Decimal
		MaxPrice24k decimal.Decimal `gorm:"column:max_price_24k"`
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS days,
			COALESCE(MAX(price), 0) AS max_price,
			COALESCE(MAX(price_24k), 0) AS max_price_24k
		FROM warehouse.fact_gold
		WHERE currency_id = ? AND date >= ?
	`, currencyID, since).Scan(&result).Error
	if err != nil {
		return models.GoldStats{}, fmt.Errorf("failed to aggregate fact_gold: %w", err)
	}

	return models.GoldStats{
		Days:        result.Days,
		MaxPrice:    result.MaxPrice,
		MaxPrice24k: result.MaxPrice24k,
	}, nil
}

func (r *Repository) Rates(ctx context.Context, baseID, targetID uint, since time.Time) ([]models.RatePoint, error) {
	var points []models.RatePoint
	err := r.db.WithContext(ctx).Raw(`
		SELECT date, rate
		FROM warehouse.fact_exchange_rates
		WHERE base_currency_id = ? AND target_currency_id = ? AND date >= ?
		ORDER BY date
	`, baseID, targetID, since).Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange rates: %w", err)
	}
	return points, nil
}
