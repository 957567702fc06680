package ledger

import (
	"math"
	"sort"

	"github.com/Alias1177/BitTrader/internal/model"
)

// MonthStats aggregates trades by calendar month
type MonthStats struct {
	Buys   int     `json:"buys"`
	Sells  int     `json:"sells"`
	Volume float64 `json:"volume"`
}

// Stats summarises a trade history
type Stats struct {
	TotalTrades   int                   `json:"total_trades"`
	BuyCount      int                   `json:"buy_count"`
	SellCount     int                   `json:"sell_count"`
	DryRunCount   int                   `json:"dry_run_count"`
	TotalBought   float64               `json:"total_bought"`
	TotalSold     float64               `json:"total_sold"`
	BoughtQty     float64               `json:"bought_qty"`
	SoldQty       float64               `json:"sold_qty"`
	AvgBuyAmount  float64               `json:"avg_buy_amount"`
	AvgSellAmount float64               `json:"avg_sell_amount"`
	AvgBuyPrice   float64               `json:"avg_buy_price"`
	AvgSellPrice  float64               `json:"avg_sell_price"`
	AvgConfidence float64               `json:"avg_confidence"`
	NetQuantity   float64               `json:"net_quantity"`
	RealizedPnL   float64               `json:"realized_pnl"`
	Monthly       map[string]MonthStats `json:"monthly"`
	LastTrade     *model.TradeRecord    `json:"last_trade,omitempty"`
}

// Compute builds statistics from trades in any order. Realized profit uses the
// average cost of the quantity bought within the history; sells beyond it are
// counted in the totals but not in the profit.
func Compute(trades []model.TradeRecord) Stats {
	st := Stats{Monthly: make(map[string]MonthStats)}
	if len(trades) == 0 {
		return st
	}

	ordered := append([]model.TradeRecord(nil), trades...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		posQty     float64
		posCost    float64
		confidence float64
	)
	for _, t := range ordered {
		month := t.Timestamp.Format("2006-01")
		ms := st.Monthly[month]

		switch t.Side {
		case model.ActionBuy:
			st.BuyCount++
			st.TotalBought += t.Total
			st.BoughtQty += t.Quantity
			posQty += t.Quantity
			posCost += t.Total
			ms.Buys++
		case model.ActionSell:
			st.SellCount++
			st.TotalSold += t.Total
			st.SoldQty += t.Quantity
			matched := math.Min(t.Quantity, posQty)
			if matched > 0 {
				avgCost := posCost / posQty
				st.RealizedPnL += (t.Price - avgCost) * matched
				posCost -= avgCost * matched
				posQty -= matched
			}
			ms.Sells++
		default:
			continue
		}

		if t.DryRun {
			st.DryRunCount++
		}
		ms.Volume += t.Total
		st.Monthly[month] = ms
		confidence += t.Confidence
		st.TotalTrades++
	}

	if st.TotalTrades == 0 {
		return st
	}

	last := ordered[len(ordered)-1]
	st.LastTrade = &last
	st.AvgConfidence = confidence / float64(st.TotalTrades)
	st.NetQuantity = st.BoughtQty - st.SoldQty
	st.AvgBuyAmount = safeDiv(st.TotalBought, float64(st.BuyCount))
	st.AvgSellAmount = safeDiv(st.TotalSold, float64(st.SellCount))
	st.AvgBuyPrice = safeDiv(st.TotalBought, st.BoughtQty)
	st.AvgSellPrice = safeDiv(st.TotalSold, st.SoldQty)

	return st
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
