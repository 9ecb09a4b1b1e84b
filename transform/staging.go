package transform

import (
	"context"
	"fmt"

	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var stagingKey = []clause.Column{{Name: "currency_id"}, {Name: "date"}}

var goldPriceColumns = []string{"open", "high", "low", "price", "price_24k", "price_18k", "price_14k"}

// Repository owns the staging tables and the transform log.
type Repository struct {
	db     *gorm.DB
	schema *SchemaManager
	log    *zap.Logger
}

func NewRepository(db *gorm.DB, schema *SchemaManager, log *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		schema: schema,
		log:    log,
	}
}

// Truncate empties both staging tables at the start of a transform run.
func (r *Repository) Truncate(ctx context.Context) error {
	sql := fmt.Sprintf("TRUNCATE TABLE %s, %s", models.TableBtcStaging, models.TableGoldStaging)
	if err := r.db.WithContext(ctx).Exec(sql).Error; err != nil {
		return fmt.Errorf("failed to truncate staging tables: %w", err)
	}
	r.log.Info("Staging tables truncated")
	return nil
}

// PendingFiles returns the landed files of source that have no transform log entry yet, newest first.
func (r *Repository) PendingFiles(ctx context.Context, source models.Source) ([]models.ImportLog, error) {
	var files []models.ImportLog
	err := r.db.WithContext(ctx).Raw(`
		SELECT il.*
		FROM extract.import_log il
		LEFT JOIN transform.transform_log tl ON tl.processed_file_name = il.import_file_name
		WHERE il.import_directory_name LIKE ? AND tl.id IS NULL
		ORDER BY il.batch_date DESC
	`, "%"+source.DataType()+"%").Scan(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending %s files: %w", source, err)
	}
	return files, nil
}

// LogTransform records the outcome of one raw file.
func (r *Repository) LogTransform(ctx context.Context, entry *models.TransformLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write transform log: %w", err)
	}
	return nil
}

// WithinFile runs fn inside one transaction. Rows written through the RowWriter
// get their own savepoint, so a failing row is rolled back alone.
func (r *Repository) WithinFile(ctx context.Context, fn func(RowWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&fileWriter{tx: tx, schema: r.schema})
	})
}

type fileWriter struct {
	tx     *gorm.DB
	schema *SchemaManager
}

func (w *fileWriter) UpsertBtc(ctx context.Context, row models.BtcStaging) error {
	return w.tx.Transaction(func(sp *gorm.DB) error {
		return sp.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   stagingKey,
				DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
			}).
			Create(&row).Error
	})
}

func (w *fileWriter) UpsertGold(ctx context.Context, row models.GoldStaging) error {
	return w.tx.Transaction(func(sp *gorm.DB) error {
		codes := make([]string, 0, len(row.Rates))
		for code := range row.Rates {
			codes = append(codes, code)
		}

		rateColumns, err := w.schema.EnsureColumns(ctx, sp, codes)
		if err != nil {
			return err
		}

		values := map[string]interface{}{
			"currency_id": row.CurrencyID,
			"date":        row.Date,
			"open":        row.Open,
			"high":        row.High,
			"low":         row.Low,
			"price":       row.Price,
			"price_24k":   row.Price24k,
			"price_18k":   row.Price18k,
			"price_14k":   row.Price14k,
		}
		for code, rate := range row.Rates {
			values[models.RateColumn(code)] = rate
		}

		updates := append(append([]string(nil), goldPriceColumns...), rateColumns...)
		return sp.WithContext(ctx).
			Table(models.TableGoldStaging).
			Clauses(clause.OnConflict{
				Columns:   stagingKey,
				DoUpdates: clause.AssignmentColumns(updates),
			}).
			Create(values).Error
	})
}
