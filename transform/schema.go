package transform

import (
	"context"
	"fmt"
	"sort"

	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/lookup"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchemaManager grows the gold staging table with one rate_<ccy> column per currency seen.
type SchemaManager struct {
	log *zap.Logger
}

func NewSchemaManager(log *zap.Logger) *SchemaManager {
	return &SchemaManager{log: log}
}

// EnsureColumns makes sure a rate column exists for every code and returns the
// column names in code order. Every code is validated before any DDL runs, so a
// single bad code leaves the table untouched. tx is normally the open file transaction.
func (m *SchemaManager) EnsureColumns(ctx context.Context, tx *gorm.DB, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	for _, code := range sorted {
		if !lookup.ValidCurrencyCode(code) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrencyCode, code)
		}
	}

	existing, err := lookup.Columns(ctx, tx, models.TableGoldStaging)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(sorted))
	for _, code := range sorted {
		column := models.RateColumn(code)
		if !existing[column] {
			ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s NUMERIC(18,6) NULL",
				models.TableGoldStaging, column)
			if err := tx.WithContext(ctx).Exec(ddl).Error; err != nil {
				return nil, fmt.Errorf("failed to add column %s: %w", column, err)
			}
			existing[column] = true
			m.log.Info("Added rate column", zap.String("column", column))
		}
		columns = append(columns, column)
	}

	return columns, nil
}
