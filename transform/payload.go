// Package transform normalizes raw BTC and gold payloads into the staging tables.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/marketetl/apperrors"
)

// CurrencyResolver maps currency codes to ids. ok is false for unknown codes.
type CurrencyResolver interface {
	ResolveCurrencyID(ctx context.Context, code string) (uint, bool)
}

// RowResult carries either a parsed row or the reason it was skipped.
type RowResult[R any] struct {
	Row R
	Key string
	Err error
}

// Snapshot is the parse of one timestamped payload inside a raw file.
type Snapshot[R any] struct {
	CurrencyCode string
	CurrencyID   uint
	Rows         []RowResult[R]
}

const dateLayout = "2006-01-02"

func decode(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMalformedPayload, err)
	}
	return nil
}

// toDecimal converts a decoded JSON value (string or number) without going through float64.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, fmt.Errorf("non-numeric value %q", n)
		}
		return d, nil
	case nil:
		return decimal.Zero, fmt.Errorf("missing value")
	default:
		return decimal.Zero, fmt.Errorf("unsupported value %v of type %T", v, v)
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return d, nil
}
