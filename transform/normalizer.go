package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

// RowWriter upserts single staging rows inside an open file transaction.
type RowWriter interface {
	UpsertBtc(ctx context.Context, row models.BtcStaging) error
	UpsertGold(ctx context.Context, row models.GoldStaging) error
}

// Staging is the storage side of the normalizer.
type Staging interface {
	WithinFile(ctx context.Context, fn func(RowWriter) error) error
	LogTransform(ctx context.Context, entry *models.TransformLog) error
}

// FileStore reads raw files and files them away once handled.
type FileStore interface {
	ReadSnapshots(path string) ([]json.RawMessage, error)
	Move(status models.Status, source models.Source, path string) (string, error)
}

// RawFile is a landed file waiting to be normalized.
type RawFile struct {
	Source     models.Source
	Path       string
	CurrencyID *uint
}

// Outcome summarizes one normalized file.
type Outcome struct {
	Source     models.Source
	Path       string
	Status     models.Status
	Rows       int
	Skipped    int
	CurrencyID *uint
}

// Normalizer turns one raw file into staging rows, files it under processed/ or
// error/ and writes its transform log entry.
type Normalizer struct {
	resolver CurrencyResolver
	staging  Staging
	store    FileStore
	log      *zap.Logger
	now      func() time.Time
}

func NewNormalizer(resolver CurrencyResolver, staging Staging, store FileStore, log *zap.Logger) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		staging:  staging,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Normalize never fails as a whole: problems are logged and the file ends up with
// status error when no row could be written.
func (n *Normalizer) Normalize(ctx context.Context, file RawFile) Outcome {
	log := n.log.With(zap.String("source", string(file.Source)), zap.String("file", file.Path))

	out := Outcome{
		Source:     file.Source,
		Path:       file.Path,
		Status:     models.StatusError,
		CurrencyID: file.CurrencyID,
	}

	res, err := n.stageFile(ctx, log, file)
	if err != nil {
		log.Error("Failed to normalize file", zap.Error(err))
	}
	out.Rows = res.written
	out.Skipped = res.skipped
	if res.currencyID != nil {
		out.CurrencyID = res.currencyID
	}
	if out.Rows > 0 {
		out.Status = models.StatusProcessed
	} else if err == nil {
		log.Warn("Nothing staged from file", zap.Error(apperrors.ErrNoRows))
	}

	moved, err := n.store.Move(out.Status, file.Source, file.Path)
	if err != nil {
		log.Error("Failed to move raw file", zap.String("status", string(out.Status)), zap.Error(err))
	}
	out.Path = moved

	entry := &models.TransformLog{
		BatchDate:              n.now(),
		CurrencyID:             out.CurrencyID,
		ProcessedDirectoryName: filepath.Dir(moved),
		ProcessedFileName:      filepath.Base(moved),
		RowCount:               out.Rows,
		Status:                 out.Status,
	}
	if err := n.staging.LogTransform(ctx, entry); err != nil {
		log.Error("Failed to log transform", zap.Error(err))
	}

	log.Info("File normalized",
		zap.String("status", string(out.Status)),
		zap.Int("rows", out.Rows),
		zap.Int("skipped", out.Skipped))

	return out
}

type stageResult struct {
	written    int
	skipped    int
	currencyID *uint
}

func (n *Normalizer) stageFile(ctx context.Context, log *zap.Logger, file RawFile) (stageResult, error) {
	snapshots, err := n.store.ReadSnapshots(file.Path)
	if err != nil {
		return stageResult{}, err
	}

	switch file.Source {
	case models.SourceBTC:
		return stage(ctx, n, log, snapshots, ParseBtcSnapshot, RowWriter.UpsertBtc)
	case models.SourceGold:
		return stage(ctx, n, log, snapshots, ParseGoldSnapshot, RowWriter.UpsertGold)
	default:
		return stageResult{}, fmt.Errorf("unknown source %q", file.Source)
	}
}

func stage[R any](
	ctx context.Context,
	n *Normalizer,
	log *zap.Logger,
	snapshots []json.RawMessage,
	parse func(context.Context, json.RawMessage, CurrencyResolver) (Snapshot[R], error),
	upsert func(RowWriter, context.Context, R) error,
) (stageResult, error) {
	var res stageResult
	var rows []RowResult[R]

	for i, raw := range snapshots {
		snap, err := parse(ctx, raw, n.resolver)
		if snap.CurrencyID != 0 {
			id := snap.CurrencyID
			res.currencyID = &id
		}
		if err != nil {
			log.Warn("Skipping snapshot",
				zap.Int("snapshot", i),
				zap.String("currency", snap.CurrencyCode),
				zap.Error(err))
			continue
		}
		rows = append(rows, snap.Rows...)
	}

	if len(rows) == 0 {
		return res, nil
	}

	err := n.staging.WithinFile(ctx, func(w RowWriter) error {
		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.Err != nil {
				log.Warn("Skipping row", zap.String("key", r.Key), zap.Error(r.Err))
				res.skipped++
				continue
			}
			if err := upsert(w, ctx, r.Row); err != nil {
				log.Warn("Failed to stage row", zap.String("key", r.Key), zap.Error(err))
				res.skipped++
				continue
			}
			res.written++
		}
		return nil
	})
	if err != nil {
		res.written = 0
		return res, fmt.Errorf("file transaction rolled back: %w", err)
	}

	return res, nil
}
