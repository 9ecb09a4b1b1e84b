package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// CurrencyResolver maps currency codes to ids. ok is false for unknown codes.
type CurrencyResolver interface {
	ResolveCurrencyID(ctx context.Context, code string) (uint, bool)
}

// StatsReader aggregates warehouse facts.
type StatsReader interface {
	BtcStats(ctx context.Context, currencyID uint, since time.Time) (models.BtcStats, error)
	GoldStats(ctx context.Context, currencyID uint, since time.Time) (models.GoldStats, error)
	Rates(ctx context.Context, baseID, targetID uint, since time.Time) ([]models.RatePoint, error)
}

type StatsQuery struct {
	Currency  string `form:"currency" binding:"required"`
	StartDate string `form:"start_date"`
}

type RatesQuery struct {
	Base      string `form:"base" binding:"required"`
	Target    string `form:"target" binding:"required"`
	StartDate string `form:"start_date"`
}

// RatesResponse is the exchange-rate series between two currencies.
type RatesResponse struct {
	Base      string             `json:"base"`
	Target    string             `json:"target"`
	StartDate string             `json:"start_date"`
	Rates     []models.RatePoint `json:"rates"`
}

type Handler struct {
	stats      StatsReader
	currencies CurrencyResolver
	log        *zap.Logger
	now        func() time.Time
}

func NewHandler(stats StatsReader, currencies CurrencyResolver, log *zap.Logger) *Handler {
	return &Handler{
		stats:      stats,
		currencies: currencies,
		log:        log,
		now:        time.Now,
	}
}

func (h *Handler) GetBtcStats(c *gin.Context) {
	var params StatsQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, ok := h.startDate(c, params.StartDate)
	if !ok {
		return
	}
	code, currencyID, ok := h.currency(c, params.Currency)
	if !ok {
		return
	}

	stats, err := h.stats.BtcStats(c.Request.Context(), currencyID, startDate)
	if err != nil {
		h.serverError(c, "btc stats", err)
		return
	}
	stats.Currency = code
	stats.StartDate = startDate.Format(dateLayout)

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetGoldStats(c *gin.Context) {
	var params StatsQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, ok := h.startDate(c, params.StartDate)
	if !ok {
		return
	}
	code, currencyID, ok := h.currency(c, params.Currency)
	if !ok {
		return
	}

	stats, err := h.stats.GoldStats(c.Request.Context(), currencyID, startDate)
	if err != nil {
		h.serverError(c, "gold stats", err)
		return
	}
	stats.Currency = code
	stats.StartDate = startDate.Format(dateLayout)

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetRates(c *gin.Context) {
	var params RatesQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, ok := h.startDate(c, params.StartDate)
	if !ok {
		return
	}
	base, baseID, ok := h.currency(c, params.Base)
	if !ok {
		return
	}
	target, targetID, ok := h.currency(c, params.Target)
	if !ok {
		return
	}

	rates, err := h.stats.Rates(c.Request.Context(), baseID, targetID, startDate)
	if err != nil {
		h.serverError(c, "rates", err)
		return
	}
	if rates == nil {
		rates = []models.RatePoint{}
	}

	c.JSON(http.StatusOK, RatesResponse{
		Base:      base,
		Target:    target,
		StartDate: startDate.Format(dateLayout),
		Rates:     rates,
	})
}

// startDate parses the optional start_date, defaulting to 7 days before yesterday.
func (h *Handler) startDate(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		y, m, d := h.now().AddDate(0, 0, -8).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}

	startDate, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return startDate, true
}

func (h *Handler) currency(c *gin.Context, raw string) (string, uint, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	id, ok := h.currencies.ResolveCurrencyID(c.Request.Context(), code)
	if !ok {
		err := fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, code)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", 0, false
	}
	return code, id, true
}

func (h *Handler) serverError(c *gin.Context, what string, err error) {
	h.log.Error("Failed to read "+what, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// SetupRoutes builds the read API router.
func SetupRoutes(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/btc/stats", h.GetBtcStats)
	r.GET("/api/gold/stats", h.GetGoldStats)
	r.GET("/api/rates", h.GetRates)

	return r
}
