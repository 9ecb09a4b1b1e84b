// Package extract fetches the upstream price feeds and lands them on disk.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Response is what an upstream API returned. ErrorMessage holds the body of a non-200 answer.
type Response struct {
	StatusCode   int
	Body         []byte
	ErrorMessage string
}

// BTCClient calls the Alpha Vantage daily digital currency endpoint.
type BTCClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewBTCClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *BTCClient {
	return &BTCClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch returns the full daily BTC history priced in market.
func (c *BTCClient) Fetch(ctx context.Context, market string) (Response, error) {
	params := url.Values{}
	params.Add("function", "DIGITAL_CURRENCY_DAILY")
	params.Add("symbol", "BTC")
	params.Add("market", market)
	params.Add("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	return do(c.httpClient, req, c.logger.With(zap.String("api", "btc"), zap.String("market", market)))
}

// GoldClient calls the gold "latest" endpoint.
type GoldClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGoldClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *GoldClient {
	return &GoldClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch returns today's gold prices per gram in base together with base's exchange rates.
func (c *GoldClient) Fetch(ctx context.Context, base string) (Response, error) {
	params := url.Values{}
	params.Add("metals", "XAU")
	params.Add("base_currency", base)
	params.Add("weight_unit", "gram")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	return do(c.httpClient, req, c.logger.With(zap.String("api", "gold"), zap.String("base", base)))
}

func do(client *http.Client, req *http.Request, logger *zap.Logger) (Response, error) {
	logger.Debug("Calling API", zap.String("host", req.URL.Host), zap.String("path", req.URL.Path))

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("Failed to call API", zap.Error(err))
		return Response{}, fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("failed to read response: %w", err)
	}

	out := Response{StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode != http.StatusOK {
		out.ErrorMessage = string(body)
		logger.Error("API error response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", out.ErrorMessage))
		return out, fmt.Errorf("API returned status code %d: %s", resp.StatusCode, out.ErrorMessage)
	}

	return out, nil
}
