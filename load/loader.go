package load

import (
	"context"

	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

// Warehouse is the set of upserts the load stage sequences.
type Warehouse interface {
	UpsertDimDate(ctx context.Context, stagingTable string) (int64, error)
	UpsertFactBtc(ctx context.Context) (int64, error)
	UpsertFactGold(ctx context.Context) (int64, error)
	UpsertExchangeRates(ctx context.Context, code string) (int64, error)
}

// RateColumnLister reads the currencies that have a rate column in gold staging.
type RateColumnLister interface {
	ListRateColumns(ctx context.Context) ([]string, error)
}

// Summary counts the rows each step affected.
type Summary struct {
	DimDates      int64
	FactBtc       int64
	FactGold      int64
	ExchangeRates map[string]int64
	Failures      int
}

// Loader is the load stage.
type Loader struct {
	warehouse Warehouse
	rates     RateColumnLister
	log       *zap.Logger
}

func NewLoader(warehouse Warehouse, rates RateColumnLister, log *zap.Logger) *Loader {
	return &Loader{
		warehouse: warehouse,
		rates:     rates,
		log:       log,
	}
}

// Run loads bitcoin then gold, each date dimension ahead of its fact, and finally
// one exchange-rate pass per rate column. A failing step is counted and skipped.
func (l *Loader) Run(ctx context.Context) (Summary, error) {
	s := Summary{ExchangeRates: make(map[string]int64)}

	l.log.Info("Starting load")

	s.DimDates += l.step(&s, func() (int64, error) {
		return l.warehouse.UpsertDimDate(ctx, models.TableBtcStaging)
	})
	s.FactBtc = l.step(&s, func() (int64, error) {
		return l.warehouse.UpsertFactBtc(ctx)
	})
	if err := ctx.Err(); err != nil {
		return s, err
	}

	s.DimDates += l.step(&s, func() (int64, error) {
		return l.warehouse.UpsertDimDate(ctx, models.TableGoldStaging)
	})
	s.FactGold = l.step(&s, func() (int64, error) {
		return l.warehouse.UpsertFactGold(ctx)
	})

	codes, err := l.rates.ListRateColumns(ctx)
	if err != nil {
		l.log.Error("Failed to list rate columns", zap.Error(err))
		s.Failures++
	}
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		s.ExchangeRates[code] = l.step(&s, func() (int64, error) {
			return l.warehouse.UpsertExchangeRates(ctx, code)
		})
	}

	l.log.Info("Load completed",
		zap.Int64("dim_date", s.DimDates),
		zap.Int64("fact_btc", s.FactBtc),
		zap.Int64("fact_gold", s.FactGold),
		zap.Int("rate_columns", len(codes)),
		zap.Int("failures", s.Failures))

	return s, nil
}

// step runs one upsert. The engine already logged the cause of a failure.
func (l *Loader) step(s *Summary, fn func() (int64, error)) int64 {
	rows, err := fn()
	if err != nil {
		s.Failures++
		return 0
	}
	return rows
}
