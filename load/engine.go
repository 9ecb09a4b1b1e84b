// Package load moves staged rows into the warehouse.
package load

import (
	"context"
	"fmt"
	"time"

	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/lookup"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statementTimeout bounds each set-based upsert.
const statementTimeout = 5 * time.Minute

// CurrencyResolver maps currency codes to ids. ok is false for unknown codes.
type CurrencyResolver interface {
	ResolveCurrencyID(ctx context.Context, code string) (uint, bool)
}

// Engine runs the change-detected warehouse upserts. Every operation runs in its
// own transaction and reports 0 rows when it fails.
type Engine struct {
	db       *gorm.DB
	resolver CurrencyResolver
	log      *zap.Logger
}

func NewEngine(db *gorm.DB, resolver CurrencyResolver, log *zap.Logger) *Engine {
	return &Engine{
		db:       db,
		resolver: resolver,
		log:      log,
	}
}

const upsertFactBtcSQL = `
	INSERT INTO warehouse.fact_btc (currency_id, date, open, high, low, close, volume, created_at, updated_at)
	SELECT imp.currency_id, imp.date, imp.open, imp.high, imp.low, imp.close, imp.volume, NOW(), NOW()
	FROM transform.btc_data_import imp
	LEFT JOIN warehouse.fact_btc fact
		ON fact.currency_id = imp.currency_id AND fact.date = imp.date
	WHERE fact.currency_id IS NULL
		OR md5(concat_ws(',', fact.open, fact.high, fact.low, fact.close, fact.volume))
		<> md5(concat_ws(',', imp.open, imp.high, imp.low, imp.close, imp.volume))
	ON CONFLICT (currency_id, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		updated_at = NOW()
`

const upsertFactGoldSQL = `
	INSERT INTO warehouse.fact_gold (currency_id, date, open, high, low, price, price_24k, price_18k, price_14k, created_at, updated_at)
	SELECT imp.currency_id, imp.date, imp.open, imp.high, imp.low, imp.price, imp.price_24k, imp.price_18k, imp.price_14k, NOW(), NOW()
	FROM transform.gold_data_import imp
	LEFT JOIN warehouse.fact_gold fact
		ON fact.currency_id = imp.currency_id AND fact.date = imp.date
	WHERE fact.currency_id IS NULL
		OR md5(concat_ws(',', fact.open, fact.high, fact.low, fact.price, fact.price_24k, fact.price_18k, fact.price_14k))
		<> md5(concat_ws(',', imp.open, imp.high, imp.low, imp.price, imp.price_24k, imp.price_18k, imp.price_14k))
	ON CONFLICT (currency_id, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		price = EXCLUDED.price,
		price_24k = EXCLUDED.price_24k,
		price_18k = EXCLUDED.price_18k,
		price_14k = EXCLUDED.price_14k,
		updated_at = NOW()
`

// The rate column is spliced in after validation; ids are bound.
const upsertExchangeRatesSQL = `
	INSERT INTO warehouse.fact_exchange_rates (date, base_currency_id, target_currency_id, rate, created_at, updated_at)
	SELECT imp.date, imp.currency_id, @target, imp.%[1]s, NOW(), NOW()
	FROM transform.gold_data_import imp
	WHERE imp.%[1]s IS NOT NULL
		AND imp.currency_id <> @target
		AND NOT EXISTS (
			SELECT 1 FROM warehouse.fact_exchange_rates fact
			WHERE fact.date = imp.date
				AND fact.base_currency_id = imp.currency_id
				AND fact.target_currency_id = @target
				AND fact.rate = imp.%[1]s
		)
	ON CONFLICT (date, base_currency_id, target_currency_id) DO UPDATE SET
		rate = EXCLUDED.rate,
		updated_at = NOW()
`

var dimDateUpdates = []string{
	"day", "month", "month_name", "quarter", "year",
	"day_of_week", "week_of_year", "is_weekend", "updated_at",
}

// UpsertDimDate adds the calendar rows for every date of stagingTable that the
// date dimension does not have yet.
func (e *Engine) UpsertDimDate(ctx context.Context, stagingTable string) (int64, error) {
	if stagingTable != models.TableBtcStaging && stagingTable != models.TableGoldStaging {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownStagingTable, stagingTable)
	}

	log := e.log.With(zap.String("table", stagingTable))
	log.Info("Starting upsert of dim_date")

	var rows int64
	err := e.run(ctx, func(tx *gorm.DB) error {
		var missing []struct {
			Date time.Time
		}
		query := fmt.Sprintf(`
			SELECT DISTINCT imp.date
			FROM %s imp
			WHERE NOT EXISTS (SELECT 1 FROM warehouse.dim_date dim WHERE dim.date = imp.date)
			ORDER BY imp.date
		`, stagingTable)
		if err := tx.Raw(query).Scan(&missing).Error; err != nil {
			return fmt.Errorf("failed to find new dates: %w", err)
		}

		if len(missing) == 0 {
			log.Info("No new dates to load into dim_date")
			return nil
		}
		log.Info("Found new dates", zap.Int("dates", len(missing)))

		dims := make([]models.DimDate, 0, len(missing))
		for _, m := range missing {
			dims = append(dims, lookup.DateAttributes(m.Date))
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns(dimDateUpdates),
		}).Create(&dims)
		if result.Error != nil {
			return fmt.Errorf("failed to upsert dim_date: %w", result.Error)
		}
		rows = result.RowsAffected
		return nil
	})
	if err != nil {
		log.Error("Error upserting dim_date", zap.Error(err))
		return 0, err
	}

	log.Info("Upserted dim_date", zap.Int64("rows", rows))
	return rows, nil
}

// UpsertFactBtc copies new and changed staging rows into fact_btc.
func (e *Engine) UpsertFactBtc(ctx context.Context) (int64, error) {
	return e.exec(ctx, models.TableFactBtc, upsertFactBtcSQL)
}

// UpsertFactGold copies new and changed staging rows into fact_gold.
func (e *Engine) UpsertFactGold(ctx context.Context) (int64, error) {
	return e.exec(ctx, models.TableFactGold, upsertFactGoldSQL)
}

// UpsertExchangeRates turns the rate_<code> staging column into exchange-rate
// facts from each gold base currency to code. Rows whose rate did not change are
// left alone, and so are rows where the base currency is code itself.
func (e *Engine) UpsertExchangeRates(ctx context.Context, code string) (int64, error) {
	if !lookup.ValidCurrencyCode(code) {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrencyCode, code)
	}

	target, ok := e.resolver.ResolveCurrencyID(ctx, code)
	if !ok {
		e.log.Warn("No currency id found, skipping exchange rates", zap.String("currency", code))
		return 0, fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, code)
	}

	query := fmt.Sprintf(upsertExchangeRatesSQL, models.RateColumn(code))

	var rows int64
	err := e.run(ctx, func(tx *gorm.DB) error {
		result := tx.Exec(query, map[string]interface{}{"target": target})
		if result.Error != nil {
			return result.Error
		}
		rows = result.RowsAffected
		return nil
	})
	if err != nil {
		e.log.Error("Error upserting exchange rates", zap.String("currency", code), zap.Error(err))
		return 0, err
	}

	e.log.Info("Upserted exchange rates", zap.String("currency", code), zap.Int64("rows", rows))
	return rows, nil
}

func (e *Engine) exec(ctx context.Context, table, query string) (int64, error) {
	e.log.Info("Starting upsert", zap.String("table", table))

	var rows int64
	err := e.run(ctx, func(tx *gorm.DB) error {
		result := tx.Exec(query)
		if result.Error != nil {
			return result.Error
		}
		rows = result.RowsAffected
		return nil
	})
	if err != nil {
		e.log.Error("Error upserting", zap.String("table", table), zap.Error(err))
		return 0, err
	}

	e.log.Info("Upserted", zap.String("table", table), zap.Int64("rows", rows))
	return rows, nil
}

func (e *Engine) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	return e.db.WithContext(ctx).Transaction(fn)
}
