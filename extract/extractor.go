package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viktsys/marketetl/landing"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

// Fetcher calls one upstream API for one currency.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (Response, error)
}

// CurrencyLister supplies the currencies to extract.
type CurrencyLister interface {
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
}

// Lander persists a raw API body.
type Lander interface {
	Save(source models.Source, body []byte, now time.Time) (landing.LandedFile, error)
}

// ImportLogger records provenance of landed files and API calls.
type ImportLogger interface {
	LogImport(ctx context.Context, entry *models.ImportLog) error
	LogAPIImport(ctx context.Context, entry *models.APIImportLog) error
}

// Summary counts what an extract run did.
type Summary struct {
	Files    int
	Rows     int
	Failures int
}

// Extractor is the extract stage: every source for every known currency.
type Extractor struct {
	currencies CurrencyLister
	fetchers   map[models.Source]Fetcher
	store      Lander
	logs       ImportLogger
	log        *zap.Logger
	now        func() time.Time
}

func NewExtractor(currencies CurrencyLister, btc, gold Fetcher, store Lander, logs ImportLogger, log *zap.Logger) *Extractor {
	return &Extractor{
		currencies: currencies,
		fetchers: map[models.Source]Fetcher{
			models.SourceBTC:  btc,
			models.SourceGold: gold,
		},
		store: store,
		logs:  logs,
		log:   log,
		now:   time.Now,
	}
}

// Run fails only when the currency list cannot be read. A failed call or write
// for one currency is logged and the next currency is tried.
func (e *Extractor) Run(ctx context.Context) (Summary, error) {
	var s Summary

	currencies, err := e.currencies.ListCurrencies(ctx)
	if err != nil {
		return s, err
	}
	if len(currencies) == 0 {
		e.log.Warn("No currencies configured, nothing to extract")
		return s, nil
	}

	for _, source := range []models.Source{models.SourceBTC, models.SourceGold} {
		e.log.Info("Starting API data extraction", zap.String("source", string(source)))

		for _, c := range currencies {
			if err := ctx.Err(); err != nil {
				return s, err
			}

			rows, err := e.extractOne(ctx, source, c)
			if err != nil {
				e.log.Error("Extraction failed",
					zap.String("source", string(source)),
					zap.String("currency", c.Code),
					zap.Error(err))
				s.Failures++
				continue
			}
			s.Files++
			s.Rows += rows
		}

		e.log.Info("API data extraction complete", zap.String("source", string(source)))
	}

	return s, nil
}

func (e *Extractor) extractOne(ctx context.Context, source models.Source, c models.Currency) (int, error) {
	start := e.now()
	resp, fetchErr := e.fetchers[source].Fetch(ctx, c.Code)
	end := e.now()

	call := &models.APIImportLog{
		CurrencyID:   c.ID,
		APIID:        strings.ToUpper(string(source)),
		StartTime:    start,
		EndTime:      end,
		CodeResponse: resp.StatusCode,
	}
	switch {
	case resp.ErrorMessage != "":
		call.ErrorMessages = &resp.ErrorMessage
	case fetchErr != nil:
		msg := fetchErr.Error()
		call.ErrorMessages = &msg
	}
	if err := e.logs.LogAPIImport(ctx, call); err != nil {
		e.log.Error("Failed to log API call", zap.Error(err))
	}

	if fetchErr != nil {
		return 0, fetchErr
	}

	file, err := e.store.Save(source, resp.Body, end)
	if err != nil {
		return 0, err
	}

	rows := countRows(source, resp.Body)
	if rows == 0 {
		e.log.Warn("API response carries no rows", zap.String("file", file.Name))
	}

	currencyID := c.ID
	entry := &models.ImportLog{
		BatchDate:            start,
		CurrencyID:           &currencyID,
		ImportDirectoryName:  file.Dir,
		ImportFileName:       file.Name,
		FileCreatedDate:      file.CreatedAt,
		FileLastModifiedDate: file.ModifiedAt,
		RowCount:             rows,
	}
	if err := e.logs.LogImport(ctx, entry); err != nil {
		return 0, fmt.Errorf("landed %s but could not log it: %w", file.Path, err)
	}

	e.log.Info("Landed API response",
		zap.String("source", string(source)),
		zap.String("currency", c.Code),
		zap.String("file", file.Path),
		zap.Int("rows", rows))

	return rows, nil
}

// countRows is the number of daily entries in a BTC payload; a gold payload is one row.
func countRows(source models.Source, body []byte) int {
	if source != models.SourceBTC {
		return 1
	}

	var payload struct {
		TimeSeries map[string]json.RawMessage `json:"Time Series (Digital Currency Daily)"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0
	}
	return len(payload.TimeSeries)
}
