package upbit

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order sides and types as the exchange names them
const (
	sideBid       = "bid"
	sideAsk       = "ask"
	ordTypePrice  = "price"
	ordTypeMarket = "market"
)

// OrderResult is the exchange acknowledgement of a placed order
type OrderResult struct {
	UUID   string `json:"uuid"`
	Side   string `json:"side"`
	State  string `json:"state"`
	Market string `json:"market"`
}

type accountResponse struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Locked   string `json:"locked"`
}

// authorization builds the bearer token for a private call. params are the
// query or body parameters that must be covered by the query hash.
func (c *Client) authorization(params url.Values) (string, error) {
	if c.accessKey == "" || c.secretKey == "" {
		return "", ErrMissingCredentials
	}

	claims := jwt.MapClaims{
		"access_key": c.accessKey,
		"nonce":      uuid.NewString(),
	}
	if len(params) > 0 {
		sum := sha512.Sum512([]byte(params.Encode()))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secretKey))
	if err != nil {
		return "", fmt.Errorf("signing request: %w", err)
	}
	return "Bearer " + token, nil
}

// GetBalance returns the free balance of a currency such as KRW or BTC.
// A currency the account does not hold has a zero balance.
func (c *Client) GetBalance(ctx context.Context, currency string) (float64, error) {
	// each attempt carries a freshly signed nonce
	build := func() (*http.Request, error) {
		auth, err := c.authorization(nil)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts", nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", auth)
		return req, nil
	}

	resp, err := c.httpClient.DoBuilt(ctx, build)
	if err != nil {
		return 0, fmt.Errorf("fetching accounts: %w", err)
	}
	defer resp.Body.Close()

	var accounts []accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return 0, fmt.Errorf("decoding accounts: %w", err)
	}

	for _, a := range accounts {
		if a.Currency != currency {
			continue
		}
		balance, err := strconv.ParseFloat(a.Balance, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s balance %q: %w", currency, a.Balance, err)
		}
		return balance, nil
	}
	return 0, nil
}

// BuyMarket places a market buy spending notional units of the quote currency
func (c *Client) BuyMarket(ctx context.Context, market string, notional float64) (*OrderResult, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("side", sideBid)
	params.Set("ord_type", ordTypePrice)
	params.Set("price", FormatNotional(notional))
	return c.placeOrder(ctx, params)
}

// SellMarket places a market sell of qty units of the base currency
func (c *Client) SellMarket(ctx context.Context, market string, qty float64) (*OrderResult, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("side", sideAsk)
	params.Set("ord_type", ordTypeMarket)
	params.Set("volume", FormatQuantity(qty))
	return c.placeOrder(ctx, params)
}

func (c *Client) placeOrder(ctx context.Context, params url.Values) (*OrderResult, error) {
	auth, err := c.authorization(params)
	if err != nil {
		return nil, err
	}

	body := make(map[string]string, len(params))
	for k := range params {
		body[k] = params.Get(k)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	// orders are not idempotent, so no retries
	resp, err := c.httpClient.DoOnce(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("placing order: %w", err)
	}
	defer resp.Body.Close()

	var result OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}

	c.logger.Info().
		Str("uuid", result.UUID).
		Str("market", params.Get("market")).
		Str("side", params.Get("side")).
		Msg("Order placed")
	return &result, nil
}

// FormatNotional renders a fiat amount the way the exchange accepts it: whole units
func FormatNotional(v float64) string {
	return decimal.NewFromFloat(v).Truncate(0).String()
}

// FormatQuantity renders an asset quantity with at most 8 decimals
func FormatQuantity(v float64) string {
	return decimal.NewFromFloat(v).Truncate(8).String()
}
