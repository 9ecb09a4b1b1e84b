package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/models"
)

const (
	btcMetaKey       = "Meta Data"
	btcMarketCodeKey = "4. Market Code"
	btcTimeSeriesKey = "Time Series (Digital Currency Daily)"
)

type btcSnapshot struct {
	Meta       map[string]any             `json:"Meta Data"`
	TimeSeries map[string]json.RawMessage `json:"Time Series (Digital Currency Daily)"`
}

// btcFields lists the OHLCV keys by their position in the upstream payload.
var btcFields = []struct {
	num  string
	name string
}{
	{"1", "open"},
	{"2", "high"},
	{"3", "low"},
	{"4", "close"},
	{"5", "volume"},
}

// ParseBtcSnapshot extracts one staging row per day of a daily digital currency
// payload. A snapshot without meta data, market code, resolvable currency or time
// series is rejected as a whole; a bad day only rejects that row.
func ParseBtcSnapshot(ctx context.Context, raw json.RawMessage, resolver CurrencyResolver) (Snapshot[models.BtcStaging], error) {
	var snap btcSnapshot
	if err := decode(raw, &snap); err != nil {
		return Snapshot[models.BtcStaging]{}, err
	}

	if len(snap.Meta) == 0 {
		return Snapshot[models.BtcStaging]{}, fmt.Errorf("%w: no %q", apperrors.ErrMalformedPayload, btcMetaKey)
	}

	code, _ := snap.Meta[btcMarketCodeKey].(string)
	if code == "" {
		return Snapshot[models.BtcStaging]{}, fmt.Errorf("%w: no %q", apperrors.ErrMalformedPayload, btcMarketCodeKey)
	}

	currencyID, ok := resolver.ResolveCurrencyID(ctx, code)
	if !ok {
		return Snapshot[models.BtcStaging]{CurrencyCode: code}, fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, code)
	}

	if len(snap.TimeSeries) == 0 {
		return Snapshot[models.BtcStaging]{CurrencyCode: code, CurrencyID: currencyID},
			fmt.Errorf("%w: no %q", apperrors.ErrMalformedPayload, btcTimeSeriesKey)
	}

	dates := make([]string, 0, len(snap.TimeSeries))
	for d := range snap.TimeSeries {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := Snapshot[models.BtcStaging]{CurrencyCode: code, CurrencyID: currencyID}
	for _, d := range dates {
		row, err := parseBtcDay(currencyID, code, d, snap.TimeSeries[d])
		out.Rows = append(out.Rows, RowResult[models.BtcStaging]{Row: row, Key: d, Err: err})
	}
	return out, nil
}

func parseBtcDay(currencyID uint, market, date string, raw json.RawMessage) (models.BtcStaging, error) {
	day, err := parseDate(date)
	if err != nil {
		return models.BtcStaging{}, err
	}

	var daily map[string]any
	if err := decode(raw, &daily); err != nil {
		return models.BtcStaging{}, err
	}

	values := make([]decimal.Decimal, len(btcFields))
	for i, f := range btcFields {
		v, ok := btcValue(daily, f.num, f.name, market)
		if !ok {
			return models.BtcStaging{}, fmt.Errorf("%w: missing %s", apperrors.ErrMalformedPayload, f.name)
		}
		values[i], err = toDecimal(v)
		if err != nil {
			return models.BtcStaging{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}

	return models.BtcStaging{
		CurrencyID: currencyID,
		Date:       day,
		Open:       values[0],
		High:       values[1],
		Low:        values[2],
		Close:      values[3],
		Volume:     values[4],
	}, nil
}

// btcValue accepts both "1. open" and the market-suffixed "1a. open (USD)" keys.
func btcValue(daily map[string]any, num, name, market string) (any, bool) {
	if v, ok := daily[num+". "+name]; ok {
		return v, true
	}
	if v, ok := daily[fmt.Sprintf("%sa. %s (%s)", num, name, market)]; ok {
		return v, true
	}
	return nil, false
}
