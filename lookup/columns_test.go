package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/marketetl/dbtest"
	"go.uber.org/zap"
)

func TestListRateColumns(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := New(db, zap.NewNop())

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("transform", "gold_data_import").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("rate_eur").
			AddRow("rate_gbp").
			AddRow("rate_usd"))

	codes, err := svc.ListRateColumns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, codes)
}

func TestListRateColumnsError(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := New(db, zap.NewNop())

	mock.ExpectQuery("FROM information_schema.columns").WillReturnError(errors.New("boom"))

	_, err := svc.ListRateColumns(context.Background())
	assert.ErrorContains(t, err, "failed to list rate columns")
}

func TestTableColumns(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := New(db, zap.NewNop())

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("transform", "gold_data_import").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("currency_id").
			AddRow("rate_eur"))

	columns, err := svc.TableColumns(context.Background(), "transform.gold_data_import")
	require.NoError(t, err)
	assert.True(t, columns["rate_eur"])
	assert.False(t, columns["rate_xyz"])
}

func TestSplitTable(t *testing.T) {
	schema, name := splitTable("warehouse.fact_btc")
	assert.Equal(t, "warehouse", schema)
	assert.Equal(t, "fact_btc", name)

	schema, name = splitTable("plain")
	assert.Equal(t, "public", schema)
	assert.Equal(t, "plain", name)
}
