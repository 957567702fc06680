package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Alias1177/BitTrader/internal/model"
)

// ErrNoJSON is returned when the completion holds no JSON object
var ErrNoJSON = errors.New("no json object in ai response")

type rawOpinion struct {
	Decision      string          `json:"decision"`
	Signal        string          `json:"signal"`
	Action        string          `json:"action"`
	Confidence    json.RawMessage `json:"confidence"`
	Reasoning     string          `json:"reasoning"`
	Reason        string          `json:"reason"`
	TargetPrice   json.RawMessage `json:"target_price"`
	StopLoss      json.RawMessage `json:"stop_loss"`
	RiskLevel     string          `json:"risk_level"`
	KeyIndicators []string        `json:"key_indicators"`
}

// ParseOpinion extracts the JSON answer from a completion and normalizes it.
// The result still has to be validated by the caller.
func ParseOpinion(text string) (model.AIOpinion, error) {
	body, err := extractJSON(text)
	if err != nil {
		return model.AIOpinion{}, err
	}

	var raw rawOpinion
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return model.AIOpinion{}, fmt.Errorf("decoding ai response: %w", err)
	}

	decision := firstNonEmpty(raw.Decision, raw.Signal, raw.Action)
	confidence, err := parseNumber(raw.Confidence)
	if err != nil {
		return model.AIOpinion{}, fmt.Errorf("confidence: %w", err)
	}
	if confidence > 1 && confidence <= 100 {
		// answered as a percentage
		confidence /= 100
	}

	op := model.AIOpinion{
		Direction:     NormalizeDirection(decision),
		Confidence:    confidence,
		Reasoning:     firstNonEmpty(raw.Reasoning, raw.Reason),
		RiskLevel:     strings.ToLower(strings.TrimSpace(raw.RiskLevel)),
		KeyIndicators: raw.KeyIndicators,
	}
	if v, err := parseNumber(raw.TargetPrice); err == nil && v > 0 {
		op.TargetPrice = &v
	}
	if v, err := parseNumber(raw.StopLoss); err == nil && v > 0 {
		op.StopLoss = &v
	}
	return op, nil
}

// NormalizeDirection maps the words models use for a side onto a Direction.
// Unknown words are returned lowercased so validation can reject them.
func NormalizeDirection(s string) model.Direction {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "buy", "long", "매수", "strong buy", "weak buy":
		return model.DirectionBuy
	case "sell", "short", "매도", "strong sell", "weak sell":
		return model.DirectionSell
	case "hold", "wait", "neutral", "홀드", "관망":
		return model.DirectionHold
	}
	return model.Direction(v)
}

// extractJSON returns the first fenced JSON block, or the outermost braces
func extractJSON(text string) (string, error) {
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			if block := strings.TrimSpace(rest[:end]); strings.HasPrefix(block, "{") {
				return block, nil
			}
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// parseNumber accepts a JSON number, a numeric string or a percent string
func parseNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("missing")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSuffix(s, "%"), ",", "")

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if percent {
		f /= 100
	}
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
