package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/viktsys/marketetl/models"
	"gorm.io/gorm"
)

// TableColumns returns the column names of a schema-qualified table.
func (s *Service) TableColumns(ctx context.Context, table string) (map[string]bool, error) {
	return Columns(ctx, s.db, table)
}

// Columns reads the columns of table through db, which may be an open transaction.
func Columns(ctx context.Context, db *gorm.DB, table string) (map[string]bool, error) {
	schema, name := splitTable(table)

	var names []string
	err := db.WithContext(ctx).Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
	`, schema, name).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	columns := make(map[string]bool, len(names))
	for _, n := range names {
		columns[n] = true
	}
	return columns, nil
}

// ListRateColumns returns the currency codes that currently have a rate_<ccy>
// column in the gold staging table, uppercased and sorted.
func (s *Service) ListRateColumns(ctx context.Context) ([]string, error) {
	schema, name := splitTable(models.TableGoldStaging)

	var names []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ? AND column_name LIKE 'rate\_%'
		ORDER BY column_name
	`, schema, name).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rate columns: %w", err)
	}

	codes := make([]string, 0, len(names))
	for _, n := range names {
		codes = append(codes, strings.ToUpper(strings.TrimPrefix(n, models.RateColumnPrefix)))
	}
	return codes, nil
}

func splitTable(table string) (string, string) {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return schema, name
	}
	return "public", table
}
