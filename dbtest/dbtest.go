// Package dbtest provides gorm handles for tests: sqlmock-backed ones for unit
// tests and a real postgres one for integration tests.
package dbtest

import (
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a gorm handle backed by sqlmock. Unmet expectations fail the test on cleanup.
func New(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mockDb.Close()
	})

	return db, mock
}

// PostgresDSNEnv names the DSN of a disposable postgres database for integration tests.
const PostgresDSNEnv = "TEST_DATABASE_DSN"

// integrationLock serializes test binaries sharing the database.
const integrationLock = 7262601

// Postgres opens the database named by TEST_DATABASE_DSN and skips the test when it
// is unset. The handle is pinned to a single connection holding an advisory lock
// for the lifetime of the test.
func Postgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.Exec("SELECT pg_advisory_lock(?)", integrationLock).Error)

	t.Cleanup(func() {
		db.Exec("SELECT pg_advisory_unlock(?)", integrationLock)
		sqlDB.Close()
	})

	return db
}
