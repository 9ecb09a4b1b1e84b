package transform

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/marketetl/apperrors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseBtcSnapshot(t *testing.T) {
	snap, err := ParseBtcSnapshot(context.Background(), json.RawMessage(btcPayload), staticResolver{"USD": 1})
	require.NoError(t, err)

	assert.Equal(t, "USD", snap.CurrencyCode)
	assert.Equal(t, uint(1), snap.CurrencyID)
	require.Len(t, snap.Rows, 2)

	first := snap.Rows[0]
	require.NoError(t, first.Err)
	assert.Equal(t, "2024-01-01", first.Key)
	assert.True(t, dec("99").Equal(first.Row.Open))
	assert.True(t, dec("100").Equal(first.Row.Close))
	assert.True(t, dec("7").Equal(first.Row.Volume))

	second := snap.Rows[1]
	require.NoError(t, second.Err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), second.Row.Date)
	assert.True(t, dec("100.5").Equal(second.Row.Open))
	assert.True(t, dec("12.5").Equal(second.Row.Volume))
	assert.Equal(t, uint(1), second.Row.CurrencyID)
}

func TestParseBtcSnapshotBadRow(t *testing.T) {
	payload := `{
		"Meta Data": {"4. Market Code": "EUR"},
		"Time Series (Digital Currency Daily)": {
			"2024-01-01": {"1. open": "abc", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"},
			"2024-01-02": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1"},
			"not-a-date": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"},
			"2024-01-03": {"1. open": 1.5, "2. high": 2, "3. low": 1, "4. close": 2, "5. volume": 3}
		}
	}`

	snap, err := ParseBtcSnapshot(context.Background(), json.RawMessage(payload), staticResolver{"EUR": 2})
	require.NoError(t, err)
	require.Len(t, snap.Rows, 4)

	assert.ErrorContains(t, snap.Rows[0].Err, "invalid open")
	assert.ErrorIs(t, snap.Rows[1].Err, apperrors.ErrMalformedPayload)
	assert.NoError(t, snap.Rows[2].Err)
	assert.True(t, dec("1.5").Equal(snap.Rows[2].Row.Open))
	assert.ErrorContains(t, snap.Rows[3].Err, "invalid date format")
}

func TestParseBtcSnapshotNonObjectDay(t *testing.T) {
	payload := `{
		"Meta Data": {"4. Market Code": "USD"},
		"Time Series (Digital Currency Daily)": {
			"2024-01-01": "n/a",
			"2024-01-02": 42,
			"2024-01-03": {"1. open": "1", "2. high": "2", "3. low": "1", "4. close": "2", "5. volume": "3"}
		}
	}`

	snap, err := ParseBtcSnapshot(context.Background(), json.RawMessage(payload), staticResolver{"USD": 1})
	require.NoError(t, err)
	require.Len(t, snap.Rows, 3)

	assert.ErrorIs(t, snap.Rows[0].Err, apperrors.ErrMalformedPayload)
	assert.ErrorIs(t, snap.Rows[1].Err, apperrors.ErrMalformedPayload)
	require.NoError(t, snap.Rows[2].Err)
	assert.Equal(t, "2024-01-03", snap.Rows[2].Key)
	assert.True(t, dec("2").Equal(snap.Rows[2].Row.Close))
}

func TestParseBtcSnapshotRejected(t *testing.T) {
	cases := map[string]string{
		"no meta":        `{"Time Series (Digital Currency Daily)": {"2024-01-01": {}}}`,
		"no market code": `{"Meta Data": {"1. Information": "x"}, "Time Series (Digital Currency Daily)": {"2024-01-01": {}}}`,
		"no series":      `{"Meta Data": {"4. Market Code": "USD"}}`,
		"not json":       `{"Meta Data":`,
		"rate limited":   `{"Information": "Thank you for using Alpha Vantage! Please consider spreading out your free API requests."}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := ParseBtcSnapshot(context.Background(), json.RawMessage(payload), staticResolver{"USD": 1})
			assert.ErrorIs(t, err, apperrors.ErrMalformedPayload)
			assert.Empty(t, snap.Rows)
		})
	}
}

func TestParseBtcSnapshotUnknownCurrency(t *testing.T) {
	snap, err := ParseBtcSnapshot(context.Background(), json.RawMessage(btcPayload), staticResolver{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "USD", snap.CurrencyCode)
	assert.Zero(t, snap.CurrencyID)
	assert.Empty(t, snap.Rows)
}

func TestParseGoldSnapshot(t *testing.T) {
	raw := json.RawMessage(goldPayload("USD", `{"EUR": 0.91, "XYZ": "1.5", "GBP": null}`))

	snap, err := ParseGoldSnapshot(context.Background(), raw, staticResolver{"USD": 1})
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)

	r := snap.Rows[0]
	require.NoError(t, r.Err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), r.Row.Date)
	assert.Equal(t, uint(1), r.Row.CurrencyID)
	assert.True(t, dec("2055.5").Equal(r.Row.Price))
	assert.True(t, dec("66.1").Equal(r.Row.Price24k))
	assert.True(t, r.Row.Price14k.IsZero())
	assert.Len(t, r.Row.Rates, 2)
	assert.True(t, dec("0.91").Equal(r.Row.Rates["EUR"]))
	assert.True(t, dec("1.5").Equal(r.Row.Rates["XYZ"]))
}

func TestParseGoldSnapshotBadRow(t *testing.T) {
	raw := json.RawMessage(goldPayload("USD", `{"EUR": "n/a"}`))

	snap, err := ParseGoldSnapshot(context.Background(), raw, staticResolver{"USD": 1})
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.ErrorContains(t, snap.Rows[0].Err, "invalid rate EUR")
}

func TestParseGoldSnapshotRejected(t *testing.T) {
	resolver := staticResolver{"USD": 1}

	cases := map[string]string{
		"failed status": `{"status": "error", "data": {"base_currency": "USD"}}`,
		"no data":       `{"status": "success"}`,
		"no base":       `{"status": "success", "data": {"timestamp": 1, "metal_prices": {"XAU": {"price": 1}}, "currency_rates": {"EUR": 1}}}`,
		"no timestamp":  `{"status": "success", "data": {"base_currency": "USD", "metal_prices": {"XAU": {"price": 1}}, "currency_rates": {"EUR": 1}}}`,
		"no xau":        `{"status": "success", "data": {"base_currency": "USD", "timestamp": 1, "metal_prices": {"XAG": {"price": 1}}, "currency_rates": {"EUR": 1}}}`,
		"no rates":      `{"status": "success", "data": {"base_currency": "USD", "timestamp": 1, "metal_prices": {"XAU": {"price": 1}}, "currency_rates": {}}}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := ParseGoldSnapshot(context.Background(), json.RawMessage(payload), resolver)
			assert.ErrorIs(t, err, apperrors.ErrMalformedPayload)
			assert.Empty(t, snap.Rows)
		})
	}
}

func TestParseGoldSnapshotUnknownCurrency(t *testing.T) {
	_, err := ParseGoldSnapshot(context.Background(), json.RawMessage(goldPayload("CHF", `{"EUR": 1}`)), staticResolver{"USD": 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestToDecimal(t *testing.T) {
	d, err := toDecimal(json.Number("12.345678"))
	require.NoError(t, err)
	assert.Equal(t, "12.345678", d.String())

	d, err = toDecimal(" 7.5 ")
	require.NoError(t, err)
	assert.Equal(t, "7.5", d.String())

	_, err = toDecimal(nil)
	assert.Error(t, err)

	_, err = toDecimal(true)
	assert.Error(t, err)
}
