package model

import "time"

// OrderBookLevel is one price level of the order book
type OrderBookLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a snapshot of both sides of the book
type OrderBook struct {
	Bids []OrderBookLevel `json:"bids"`
	Asks []OrderBookLevel `json:"asks"`
}

// TickSide is the aggressor side of a trade
type TickSide string

const (
	TickBid TickSide = "bid"
	TickAsk TickSide = "ask"
)

// TradeTick is one executed trade on the exchange
type TradeTick struct {
	Side   TickSide  `json:"side"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	Time   time.Time `json:"time"`
}

// PremiumQuote holds the inputs for the cross-exchange premium
type PremiumQuote struct {
	LocalPrice   float64 `json:"local_price"`
	ForeignPrice float64 `json:"foreign_price"`
	FXRate       float64 `json:"fx_rate"`
}

// SentimentIndex is the market fear/greed reading in [0, 100]
type SentimentIndex struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
}
