package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/models"
)

const goldMetal = "XAU"

type goldSnapshot struct {
	Status string `json:"status"`
	Data   *struct {
		BaseCurrency  string                    `json:"base_currency"`
		Timestamp     json.Number               `json:"timestamp"`
		MetalPrices   map[string]map[string]any `json:"metal_prices"`
		CurrencyRates map[string]any            `json:"currency_rates"`
	} `json:"data"`
}

// ParseGoldSnapshot extracts the single daily gold row of a "latest" payload.
// Missing price tiers default to zero; a non-numeric price or rate rejects the row.
func ParseGoldSnapshot(ctx context.Context, raw json.RawMessage, resolver CurrencyResolver) (Snapshot[models.GoldStaging], error) {
	var snap goldSnapshot
	if err := decode(raw, &snap); err != nil {
		return Snapshot[models.GoldStaging]{}, err
	}

	if snap.Status != "success" || snap.Data == nil {
		return Snapshot[models.GoldStaging]{}, fmt.Errorf("%w: status %q", apperrors.ErrMalformedPayload, snap.Status)
	}
	data := snap.Data

	code := strings.TrimSpace(data.BaseCurrency)
	if code == "" {
		return Snapshot[models.GoldStaging]{}, fmt.Errorf("%w: no base_currency", apperrors.ErrMalformedPayload)
	}

	currencyID, ok := resolver.ResolveCurrencyID(ctx, code)
	if !ok {
		return Snapshot[models.GoldStaging]{CurrencyCode: code}, fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, code)
	}
	out := Snapshot[models.GoldStaging]{CurrencyCode: code, CurrencyID: currencyID}

	if data.Timestamp == "" {
		return out, fmt.Errorf("%w: no timestamp", apperrors.ErrMalformedPayload)
	}
	ms, err := data.Timestamp.Int64()
	if err != nil {
		return out, fmt.Errorf("%w: timestamp %s", apperrors.ErrMalformedPayload, data.Timestamp)
	}
	ts := time.UnixMilli(ms).UTC()
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)

	prices := data.MetalPrices[goldMetal]
	if len(prices) == 0 {
		return out, fmt.Errorf("%w: no %s metal prices", apperrors.ErrMalformedPayload, goldMetal)
	}

	if len(data.CurrencyRates) == 0 {
		return out, fmt.Errorf("%w: no currency rates", apperrors.ErrMalformedPayload)
	}

	row, err := parseGoldRow(currencyID, day, prices, data.CurrencyRates)
	out.Rows = append(out.Rows, RowResult[models.GoldStaging]{Row: row, Key: day.Format(dateLayout), Err: err})
	return out, nil
}

func parseGoldRow(currencyID uint, day time.Time, prices map[string]any, rates map[string]any) (models.GoldStaging, error) {
	row := models.GoldStaging{
		CurrencyID: currencyID,
		Date:       day,
		Rates:      make(map[string]decimal.Decimal, len(rates)),
	}

	fields := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"open", &row.Open},
		{"high", &row.High},
		{"low", &row.Low},
		{"price", &row.Price},
		{"price_24k", &row.Price24k},
		{"price_18k", &row.Price18k},
		{"price_14k", &row.Price14k},
	}
	for _, f := range fields {
		v, ok := prices[f.key]
		if !ok {
			*f.dst = decimal.Zero
			continue
		}
		d, err := toDecimal(v)
		if err != nil {
			return models.GoldStaging{}, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = d
	}

	for code, v := range rates {
		if v == nil {
			continue
		}
		d, err := toDecimal(v)
		if err != nil {
			return models.GoldStaging{}, fmt.Errorf("invalid rate %s: %w", code, err)
		}
		row.Rates[code] = d
	}

	return row, nil
}
