package transform

import (
	"context"
	"path/filepath"

	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

// PendingSource lists what the transform stage still has to do.
type PendingSource interface {
	Truncate(ctx context.Context) error
	PendingFiles(ctx context.Context, source models.Source) ([]models.ImportLog, error)
}

// Runner is the transform stage: it clears staging and normalizes every landed
// file that has not been transformed yet.
type Runner struct {
	pending    PendingSource
	normalizer *Normalizer
	log        *zap.Logger
}

func NewRunner(pending PendingSource, normalizer *Normalizer, log *zap.Logger) *Runner {
	return &Runner{
		pending:    pending,
		normalizer: normalizer,
		log:        log,
	}
}

// Run only fails when staging cannot be cleared or ctx is cancelled between files.
func (r *Runner) Run(ctx context.Context) ([]Outcome, error) {
	if err := r.pending.Truncate(ctx); err != nil {
		return nil, err
	}

	var outcomes []Outcome
	for _, source := range []models.Source{models.SourceBTC, models.SourceGold} {
		files, err := r.pending.PendingFiles(ctx, source)
		if err != nil {
			r.log.Error("Failed to list pending files", zap.String("source", string(source)), zap.Error(err))
			continue
		}

		r.log.Info("Transforming files", zap.String("source", string(source)), zap.Int("files", len(files)))

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, r.normalizer.Normalize(ctx, RawFile{
				Source:     source,
				Path:       filepath.Join(f.ImportDirectoryName, f.ImportFileName),
				CurrencyID: f.CurrencyID,
			}))
		}
	}

	return outcomes, nil
}
