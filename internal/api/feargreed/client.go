package feargreed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Alias1177/BitTrader/internal/model"
	httpClient "github.com/Alias1177/BitTrader/internal/platform/http"
)

const defaultURL = "https://api.alternative.me/fng/?limit=1"

// Client fetches the crypto fear and greed index
type Client struct {
	url        string
	httpClient *httpClient.Client
}

// NewClient creates a new index client. An empty url uses the public endpoint.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = defaultURL
	}
	return &Client{
		url: url,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        timeout,
			RequestsPerSec: 1,
			MaxRetries:     2,
		}),
	}
}

type indexResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// GetIndex returns the latest index reading
func (c *Client) GetIndex(ctx context.Context) (model.SentimentIndex, error) {
	var data indexResponse
	if err := c.httpClient.GetJSON(ctx, c.url, nil, &data); err != nil {
		return model.SentimentIndex{}, fmt.Errorf("fetching fear and greed index: %w", err)
	}
	if len(data.Data) == 0 {
		return model.SentimentIndex{}, fmt.Errorf("fear and greed index: empty response")
	}

	value, err := strconv.Atoi(data.Data[0].Value)
	if err != nil {
		return model.SentimentIndex{}, fmt.Errorf("fear and greed index: invalid value %q", data.Data[0].Value)
	}
	return model.SentimentIndex{Value: value, Classification: data.Data[0].Classification}, nil
}
