package extract

import (
	"context"
	"fmt"

	"github.com/viktsys/marketetl/models"
	"gorm.io/gorm"
)

// Repository writes the extract provenance tables.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LogImport(ctx context.Context, entry *models.ImportLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write import log: %w", err)
	}
	return nil
}

func (r *Repository) LogAPIImport(ctx context.Context, entry *models.APIImportLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write api import log: %w", err)
	}
	return nil
}
