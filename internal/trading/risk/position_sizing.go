package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// Exchange precision: fiat notionals are whole units, quantities carry 8 decimals
const (
	notionalPlaces = 0
	quantityPlaces = 8
)

// Reasons attached to instructions that place no order
const (
	ReasonHold             = "hold decision"
	ReasonBelowMinimum     = "below minimum order amount"
	ReasonHoldingsBelowMin = "holdings below minimum order amount"
	ReasonPriceUnavailable = "price unavailable"
	ReasonUnknownDirection = "unknown decision"
)

// Balances are the account holdings available to an order
type Balances struct {
	Fiat  float64
	Asset float64
}

// PositionSizer converts a decision into a sized order
type PositionSizer struct {
	minRatio       float64
	maxRatio       float64
	minOrderAmount float64
}

// NewPositionSizer creates a sizer bound to the strategy's ratios and order minimum
func NewPositionSizer(strategy config.Strategy) *PositionSizer {
	return &PositionSizer{
		minRatio:       strategy.Investment.MinRatio,
		maxRatio:       strategy.Investment.MaxRatio,
		minOrderAmount: strategy.Trading.MinOrderAmount,
	}
}

// Ratio maps a confidence to the share of balance to commit
func (p *PositionSizer) Ratio(confidence float64) float64 {
	r := p.minRatio + model.ClampUnit(confidence)*(p.maxRatio-p.minRatio)
	return model.Clamp(r, p.minRatio, p.maxRatio)
}

// Size returns the order for a direction and confidence. Buy amounts are fiat
// notionals and sell amounts are asset quantities, both already at exchange
// precision; no returned order is worth less than the minimum order amount.
func (p *PositionSizer) Size(direction model.Direction, confidence float64, bal Balances, price float64) model.TradeInstruction {
	ratio := p.Ratio(confidence)
	minOrder := decimal.NewFromFloat(p.minOrderAmount)

	switch direction {
	case model.DirectionHold:
		return none(ratio, ReasonHold)
	case model.DirectionBuy:
		notional := amount(bal.Fiat).Mul(decimal.NewFromFloat(ratio)).Truncate(notionalPlaces)
		if notional.LessThan(minOrder) {
			return none(ratio, ReasonBelowMinimum)
		}
		return model.TradeInstruction{Action: model.ActionBuy, Amount: notional.InexactFloat64(), RatioUsed: ratio}
	case model.DirectionSell:
		if !(price > 0) || math.IsInf(price, 0) {
			return none(ratio, ReasonPriceUnavailable)
		}
		px := decimal.NewFromFloat(price)
		held := amount(bal.Asset).Truncate(quantityPlaces)
		if held.Mul(px).LessThan(minOrder) {
			return none(ratio, ReasonHoldingsBelowMin)
		}
		qty := held.Mul(decimal.NewFromFloat(ratio)).Truncate(quantityPlaces)
		if qty.Mul(px).LessThan(minOrder) {
			// raise to the smallest quantity the exchange accepts
			qty = minSellQuantity(minOrder, px)
			if qty.GreaterThan(held) {
				qty = held
			}
		}
		return model.TradeInstruction{Action: model.ActionSell, Amount: qty.InexactFloat64(), RatioUsed: ratio}
	}

	return none(ratio, ReasonUnknownDirection)
}

// amount converts a balance, treating values that are not finite and positive as empty
func amount(v float64) decimal.Decimal {
	if !(v > 0) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// minSellQuantity is the smallest quantity at exchange precision whose value
// at price reaches minOrder
func minSellQuantity(minOrder, price decimal.Decimal) decimal.Decimal {
	step := decimal.New(1, -quantityPlaces)
	qty := minOrder.Div(price).RoundCeil(quantityPlaces)
	for qty.Mul(price).LessThan(minOrder) {
		qty = qty.Add(step)
	}
	return qty
}

// SizeDecision sizes a fused or arbitrated decision
func (p *PositionSizer) SizeDecision(d model.Decision, bal Balances) model.TradeInstruction {
	return p.Size(d.Direction, d.Confidence, bal, d.CurrentPrice)
}

func none(ratio float64, reason string) model.TradeInstruction {
	return model.TradeInstruction{Action: model.ActionNone, RatioUsed: ratio, Reason: reason}
}
