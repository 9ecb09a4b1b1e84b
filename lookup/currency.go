// Package lookup resolves currency codes and calendar attributes shared by the
// transform and load stages.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCurrencyCode reports whether code is three uppercase letters and therefore
// safe to splice into a rate column name.
func ValidCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// Service looks up reference data. Resolved currency ids are cached for the
// lifetime of the service.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	mu    sync.RWMutex
	cache map[string]uint
}

func New(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{
		db:    db,
		log:   log,
		cache: make(map[string]uint),
	}
}

// ResolveCurrencyID returns the surrogate id for code. An unknown code is reported
// as ok == false; lookup failures are logged and reported the same way.
func (s *Service) ResolveCurrencyID(ctx context.Context, code string) (uint, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, false
	}
	s.mu.RLock()
	id, ok := s.cache[code]
	s.mu.RUnlock()
	if ok {
		return id, true
	}

	var currency models.Currency
	err := s.db.WithContext(ctx).Where("code = ?", code).Take(&currency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("No currency found for code", zap.String("code", code))
		} else {
			s.log.Error("Failed to look up currency", zap.String("code", code), zap.Error(err))
		}
		return 0, false
	}

	s.mu.Lock()
	s.cache[code] = currency.ID
	s.mu.Unlock()
	return currency.ID, true
}

// ListCurrencies returns every currency ordered by id.
func (s *Service) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := s.db.WithContext(ctx).Order("id").Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}

	s.mu.Lock()
	for _, c := range currencies {
		s.cache[c.Code] = c.ID
	}
	s.mu.Unlock()
	return currencies, nil
}
