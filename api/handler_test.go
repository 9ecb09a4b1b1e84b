package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

type mockStats struct {
	mock.Mock
}

func (m *mockStats) BtcStats(ctx context.Context, currencyID uint, since time.Time) (models.BtcStats, error) {
	args := m.Called(ctx, currencyID, since)
	return args.Get(0).(models.BtcStats), args.Error(1)
}

func (m *mockStats) GoldStats(ctx context.Context, currencyID uint, since time.Time) (models.GoldStats, error) {
	args := m.Called(ctx, currencyID, since)
	return args.Get(0).(models.GoldStats), args.Error(1)
}

func (m *mockStats) Rates(ctx context.Context, baseID, targetID uint, since time.Time) ([]models.RatePoint, error) {
	args := m.Called(ctx, baseID, targetID, since)
	points, _ := args.Get(0).([]models.RatePoint)
	return points, args.Error(1)
}

type staticResolver map[string]uint

func (r staticResolver) ResolveCurrencyID(_ context.Context, code string) (uint, bool) {
	id, ok := r[code]
	return id, ok
}

func newRouter(stats StatsReader) *gin.Engine {
	h := NewHandler(stats, staticResolver{"USD": 1, "EUR": 2}, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) }
	return SetupRoutes(h)
}

func get(r *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(newRouter(&mockStats{}), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetBtcStats(t *testing.T) {
	stats := &mockStats{}
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.On("BtcStats", mock.Anything, uint(1), since).Return(models.BtcStats{
		Days:      3,
		MaxClose:  decimal.RequireFromString("42100"),
		MaxVolume: decimal.RequireFromString("1000.5"),
	}, nil)

	w := get(newRouter(stats), "/api/btc/stats?currency=usd&start_date=2024-01-01")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.BtcStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "USD", body.Currency)
	assert.Equal(t, "2024-01-01", body.StartDate)
	assert.Equal(t, int64(3), body.Days)
	assert.True(t, decimal.RequireFromString("1000.5").Equal(body.MaxVolume))
	stats.AssertExpectations(t)
}

func TestGetBtcStatsDefaultStartDate(t *testing.T) {
	stats := &mockStats{}
	// seven days before yesterday
	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	stats.On("BtcStats", mock.Anything, uint(2), since).Return(models.BtcStats{}, nil)

	w := get(newRouter(stats), "/api/btc/stats?currency=EUR")
	assert.Equal(t, http.StatusOK, w.Code)
	stats.AssertExpectations(t)
}

func TestGetStatsBadRequests(t *testing.T) {
	r := newRouter(&mockStats{})

	cases := map[string]int{
		"/api/btc/stats":                                 http.StatusBadRequest,
		"/api/btc/stats?currency=USD&start_date=01/02/24": http.StatusBadRequest,
		"/api/gold/stats?currency=XYZ":                   http.StatusNotFound,
		"/api/rates?base=USD":                            http.StatusBadRequest,
		"/api/rates?base=USD&target=JPY":                 http.StatusNotFound,
	}

	for url, code := range cases {
		t.Run(url, func(t *testing.T) {
			assert.Equal(t, code, get(r, url).Code)
		})
	}
}

func TestGetGoldStatsFailure(t *testing.T) {
	stats := &mockStats{}
	stats.On("GoldStats", mock.Anything, uint(1), mock.Anything).Return(models.GoldStats{}, errors.New("connection reset"))

	w := get(newRouter(stats), "/api/gold/stats?currency=USD")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetRates(t *testing.T) {
	stats := &mockStats{}
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.On("Rates", mock.Anything, uint(1), uint(2), since).Return([]models.RatePoint{
		{Date: since, Rate: decimal.RequireFromString("0.91")},
		{Date: since.AddDate(0, 0, 1), Rate: decimal.RequireFromString("0.915")},
	}, nil)

	w := get(newRouter(stats), "/api/rates?base=USD&target=EUR&start_date=2024-01-01")
	require.Equal(t, http.StatusOK, w.Code)

	var body RatesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "USD", body.Base)
	assert.Equal(t, "EUR", body.Target)
	require.Len(t, body.Rates, 2)
	assert.Equal(t, "0.915", body.Rates[1].Rate.String())
}

func TestGetRatesEmptySeries(t *testing.T) {
	stats := &mockStats{}
	stats.On("Rates", mock.Anything, uint(2), uint(1), mock.Anything).Return(nil, nil)

	w := get(newRouter(stats), "/api/rates?base=EUR&target=USD")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rates":[]`)
}
