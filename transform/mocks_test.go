package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stretchr/testify/mock"
	"github.com/viktsys/marketetl/models"
)

type staticResolver map[string]uint

func (r staticResolver) ResolveCurrencyID(_ context.Context, code string) (uint, bool) {
	id, ok := r[code]
	return id, ok
}

type recordingWriter struct {
	btc    []models.BtcStaging
	gold   []models.GoldStaging
	failOn map[string]error
}

func (w *recordingWriter) UpsertBtc(_ context.Context, row models.BtcStaging) error {
	if err := w.failOn[row.Date.Format(dateLayout)]; err != nil {
		return err
	}
	w.btc = append(w.btc, row)
	return nil
}

func (w *recordingWriter) UpsertGold(_ context.Context, row models.GoldStaging) error {
	if err := w.failOn[row.Date.Format(dateLayout)]; err != nil {
		return err
	}
	w.gold = append(w.gold, row)
	return nil
}

type mockStaging struct {
	mock.Mock
	writer *recordingWriter
}

// WithinFile always runs fn; a configured error plays the part of a failed commit.
func (m *mockStaging) WithinFile(ctx context.Context, fn func(RowWriter) error) error {
	args := m.Called(ctx)
	if err := fn(m.writer); err != nil {
		return err
	}
	return args.Error(0)
}

func (m *mockStaging) LogTransform(ctx context.Context, entry *models.TransformLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ReadSnapshots(path string) ([]json.RawMessage, error) {
	args := m.Called(path)
	snapshots, _ := args.Get(0).([]json.RawMessage)
	return snapshots, args.Error(1)
}

func (m *mockStore) Move(status models.Status, source models.Source, path string) (string, error) {
	args := m.Called(status, source, path)
	return args.String(0), args.Error(1)
}

const btcPayload = `{
	"Meta Data": {
		"1. Information": "Daily Prices and Volumes for Digital Currency",
		"2. Digital Currency Code": "BTC",
		"4. Market Code": "USD"
	},
	"Time Series (Digital Currency Daily)": {
		"2024-01-02": {"1. open": "100.5", "2. high": "110", "3. low": "90", "4. close": "105", "5. volume": "12.5"},
		"2024-01-01": {"1a. open (USD)": "99", "2a. high (USD)": "101", "3a. low (USD)": "98", "4a. close (USD)": "100", "5. volume": "7"}
	}
}`

// 1704153600000 ms is 2024-01-02T00:00:00Z.
func goldPayload(base string, rates string) string {
	return fmt.Sprintf(`{
		"status": "success",
		"data": {
			"base_currency": %q,
			"timestamp": 1704153600000,
			"metal_prices": {"XAU": {"open": 2050.1, "high": 2060, "low": 2040, "price": 2055.5, "price_24k": 66.1, "price_18k": 49.5}},
			"currency_rates": %s
		}
	}`, base, rates)
}
