package binance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/model"
	httpClient "github.com/Alias1177/BitTrader/internal/platform/http"
)

const (
	defaultBaseURL = "https://api.binance.com"
	defaultFXURL   = "https://open.er-api.com/v6/latest/USD"
)

// Client fetches the foreign reference price and the USD exchange rate
type Client struct {
	baseURL    string
	fxURL      string
	fxCurrency string
	fallbackFX float64
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new client
type ClientOptions struct {
	BaseURL        string
	FXURL          string
	FXCurrency     string
	FallbackFXRate float64
	RequestTimeout time.Duration
}

// NewClient creates a new reference price client
func NewClient(options ClientOptions) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		fxURL:      options.FXURL,
		fxCurrency: options.FXCurrency,
		fallbackFX: options.FallbackFXRate,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: 5,
			MaxRetries:     2,
		}),
		logger: log.With().Str("component", "binance_client").Logger(),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.fxURL == "" {
		c.fxURL = defaultFXURL
	}
	if c.fxCurrency == "" {
		c.fxCurrency = "KRW"
	}
	return c
}

// GetPrice returns the last price of a symbol such as BTCUSDT
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var data struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/api/v3/ticker/price?"+q.Encode(), nil, &data); err != nil {
		return 0, fmt.Errorf("fetching %s price: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(data.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid %s price %q", symbol, data.Price)
	}
	return price, nil
}

// GetFXRate returns how many units of the local currency one USD buys.
// Falls back to the configured rate when the rate service is unavailable.
func (c *Client) GetFXRate(ctx context.Context) (float64, error) {
	var data struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := c.httpClient.GetJSON(ctx, c.fxURL, nil, &data)
	if err == nil {
		if rate, ok := data.Rates[c.fxCurrency]; ok && rate > 0 {
			return rate, nil
		}
		err = fmt.Errorf("no %s rate in response", c.fxCurrency)
	}

	if c.fallbackFX > 0 {
		c.logger.Warn().Err(err).Float64("fallback", c.fallbackFX).Msg("FX rate unavailable, using fallback")
		return c.fallbackFX, nil
	}
	return 0, fmt.Errorf("fetching fx rate: %w", err)
}

// GetPremiumQuote combines the local price with the foreign price and FX rate
func (c *Client) GetPremiumQuote(ctx context.Context, symbol string, localPrice float64) (model.PremiumQuote, error) {
	foreign, err := c.GetPrice(ctx, symbol)
	if err != nil {
		return model.PremiumQuote{}, err
	}
	fx, err := c.GetFXRate(ctx)
	if err != nil {
		return model.PremiumQuote{}, err
	}
	return model.PremiumQuote{LocalPrice: localPrice, ForeignPrice: foreign, FXRate: fx}, nil
}

// ForeignSymbol maps an exchange market such as KRW-BTC to its USDT pair
func ForeignSymbol(market string) string {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 {
		return market
	}
	return strings.ToUpper(parts[1]) + "USDT"
}
