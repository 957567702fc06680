package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Alias1177/BitTrader/internal/model"
)

// promptCandles is how many recent candles are shown to the model
const promptCandles = 24

const systemPrompt = "You are a disciplined crypto spot trader. Answer with a single JSON object and nothing else."

type promptMarket struct {
	Symbol         string  `json:"symbol"`
	CurrentPrice   float64 `json:"current_price"`
	PriceChange24h string  `json:"price_change_24h"`
}

type promptCandle struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type promptLocal struct {
	Decision   model.Direction    `json:"decision"`
	Confidence float64            `json:"confidence"`
	Average    float64            `json:"avg_signal_strength"`
	Signals    []model.Signal     `json:"signals"`
	Counts     model.SignalCounts `json:"signal_counts"`
}

// FormatDecisionPrompt renders the market state and the local decision for the model
func FormatDecisionPrompt(req model.OpinionRequest) (string, error) {
	d := req.Decision

	market, err := json.MarshalIndent(promptMarket{
		Symbol:         d.Symbol,
		CurrentPrice:   d.CurrentPrice,
		PriceChange24h: d.PriceChange24h,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding market data: %w", err)
	}

	local, err := json.MarshalIndent(promptLocal{
		Decision:   d.Direction,
		Confidence: d.Confidence,
		Average:    d.AvgSignalStrength,
		Signals:    d.Signals,
		Counts:     d.SignalCounts,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding indicator data: %w", err)
	}

	start := len(req.Candles) - promptCandles
	if start < 0 {
		start = 0
	}
	candles := make([]promptCandle, 0, len(req.Candles)-start)
	for _, c := range req.Candles[start:] {
		candles = append(candles, promptCandle{
			Time:   c.Time.Format("2006-01-02 15:04"),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	recent, err := json.Marshal(candles)
	if err != nil {
		return "", fmt.Errorf("encoding candles: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# 비트코인 매매 신호 분석\n\n")
	sb.WriteString("## 현재 시장 데이터\n```json\n")
	sb.Write(market)
	sb.WriteString("\n```\n\n## 기술적 지표 기반 판단\n```json\n")
	sb.Write(local)
	sb.WriteString("\n```\n\n## 최근 캔들\n```json\n")
	sb.Write(recent)
	sb.WriteString(`
` + "```" + `

각 지표를 검토하고 매수(buy), 매도(sell), 홀드(hold) 중 최적의 결정을 내려 주세요.
다음 JSON 형식으로만 답하세요:
{
  "decision": "buy | sell | hold",
  "confidence": 0.0-1.0,
  "reasoning": "결정 근거",
  "target_price": null,
  "stop_loss": null,
  "risk_level": "low | medium | high",
  "key_indicators": ["..."]
}
`)

	return sb.String(), nil
}
