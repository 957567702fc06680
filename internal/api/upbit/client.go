package upbit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/model"
	httpClient "github.com/Alias1177/BitTrader/internal/platform/http"
)

const defaultBaseURL = "https://api.upbit.com/v1"

// maxCandles is the largest page the candle endpoints return
const maxCandles = 200

// ErrMissingCredentials is returned by private endpoints when no keys are configured
var ErrMissingCredentials = errors.New("upbit credentials not configured")

// Client is the Upbit REST API client
type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Upbit client
type ClientOptions struct {
	BaseURL        string
	AccessKey      string
	SecretKey      string
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int
}

// NewClient creates a new Upbit API client
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	// Upbit allows 10 public requests per second
	if options.RequestsPerSec == 0 {
		options.RequestsPerSec = 8
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: options.AccessKey,
		secretKey: options.SecretKey,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			MaxRetries:     options.MaxRetries,
		}),
		logger: log.With().Str("component", "upbit_client").Logger(),
	}
}

type candleResponse struct {
	Timestamp string  `json:"candle_date_time_utc"`
	Open      float64 `json:"opening_price"`
	High      float64 `json:"high_price"`
	Low       float64 `json:"low_price"`
	Close     float64 `json:"trade_price"`
	Volume    float64 `json:"candle_acc_trade_volume"`
}

// candlePath maps an interval such as minute60 or day to its endpoint
func candlePath(interval string) (string, error) {
	switch {
	case strings.HasPrefix(interval, "minute"):
		unit, err := strconv.Atoi(strings.TrimPrefix(interval, "minute"))
		if err != nil {
			return "", fmt.Errorf("invalid interval %q", interval)
		}
		switch unit {
		case 1, 3, 5, 10, 15, 30, 60, 240:
			return fmt.Sprintf("/candles/minutes/%d", unit), nil
		}
		return "", fmt.Errorf("unsupported minute unit %d", unit)
	case interval == "day" || interval == "days":
		return "/candles/days", nil
	case interval == "week" || interval == "weeks":
		return "/candles/weeks", nil
	case interval == "month" || interval == "months":
		return "/candles/months", nil
	}
	return "", fmt.Errorf("unsupported interval %q", interval)
}

// GetCandles fetches up to count candles, oldest first
func (c *Client) GetCandles(ctx context.Context, market, interval string, count int) ([]model.Candle, error) {
	path, err := candlePath(interval)
	if err != nil {
		return nil, err
	}
	if count <= 0 || count > maxCandles {
		count = maxCandles
	}

	q := url.Values{}
	q.Set("market", market)
	q.Set("count", strconv.Itoa(count))

	var data []candleResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+path+"?"+q.Encode(), nil, &data); err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty candle data returned")
	}

	candles := make([]model.Candle, 0, len(data))
	for _, v := range data {
		ts, err := time.Parse("2006-01-02T15:04:05", v.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing candle time %q: %w", v.Timestamp, err)
		}
		candles = append(candles, model.Candle{
			Time:   ts.UTC(),
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}

	// Upbit returns newest first
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	c.logger.Debug().Int("count", len(candles)).Str("market", market).Msg("Fetched candles")
	return candles, nil
}

type orderbookResponse struct {
	Market string `json:"market"`
	Units  []struct {
		AskPrice float64 `json:"ask_price"`
		BidPrice float64 `json:"bid_price"`
		AskSize  float64 `json:"ask_size"`
		BidSize  float64 `json:"bid_size"`
	} `json:"orderbook_units"`
}

// GetOrderBook fetches the current order book snapshot
func (c *Client) GetOrderBook(ctx context.Context, market string) (model.OrderBook, error) {
	q := url.Values{}
	q.Set("markets", market)

	var data []orderbookResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/orderbook?"+q.Encode(), nil, &data); err != nil {
		return model.OrderBook{}, fmt.Errorf("fetching orderbook: %w", err)
	}
	if len(data) == 0 {
		return model.OrderBook{}, fmt.Errorf("empty orderbook returned")
	}

	var book model.OrderBook
	for _, u := range data[0].Units {
		book.Bids = append(book.Bids, model.OrderBookLevel{Price: u.BidPrice, Quantity: u.BidSize})
		book.Asks = append(book.Asks, model.OrderBookLevel{Price: u.AskPrice, Quantity: u.AskSize})
	}
	return book, nil
}

type tickResponse struct {
	Price     float64 `json:"trade_price"`
	Volume    float64 `json:"trade_volume"`
	AskBid    string  `json:"ask_bid"`
	Timestamp int64   `json:"timestamp"`
}

// GetTicks fetches the most recent trades
func (c *Client) GetTicks(ctx context.Context, market string, count int) ([]model.TradeTick, error) {
	q := url.Values{}
	q.Set("market", market)
	q.Set("count", strconv.Itoa(count))

	var data []tickResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/trades/ticks?"+q.Encode(), nil, &data); err != nil {
		return nil, fmt.Errorf("fetching trade ticks: %w", err)
	}

	ticks := make([]model.TradeTick, 0, len(data))
	for _, v := range data {
		side := model.TickAsk
		if strings.EqualFold(v.AskBid, "bid") {
			side = model.TickBid
		}
		ticks = append(ticks, model.TradeTick{
			Side:   side,
			Price:  v.Price,
			Volume: v.Volume,
			Time:   time.UnixMilli(v.Timestamp).UTC(),
		})
	}
	return ticks, nil
}

// GetCurrentPrice fetches the last traded price
func (c *Client) GetCurrentPrice(ctx context.Context, market string) (float64, error) {
	q := url.Values{}
	q.Set("markets", market)

	var data []struct {
		TradePrice float64 `json:"trade_price"`
	}
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/ticker?"+q.Encode(), nil, &data); err != nil {
		return 0, fmt.Errorf("fetching ticker: %w", err)
	}
	if len(data) == 0 || data[0].TradePrice <= 0 {
		return 0, fmt.Errorf("no price for %s", market)
	}
	return data[0].TradePrice, nil
}
