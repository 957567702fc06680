package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// Sender delivers a rendered message to a chat
type Sender interface {
	Send(text string) error
}

// Notifier decides which events are worth a message and renders them
type Notifier struct {
	settings config.NotificationSettings
	sender   Sender
	logger   zerolog.Logger
}

// New creates a notifier. A nil sender disables every notification.
func New(settings config.NotificationSettings, sender Sender) *Notifier {
	return &Notifier{
		settings: settings,
		sender:   sender,
		logger:   log.With().Str("component", "notifier").Logger(),
	}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.sender != nil && n.settings.Enabled
}

// Trade announces an executed or simulated order
func (n *Notifier) Trade(t model.TradeRecord) {
	if !n.enabled() || !n.settings.NotifyOnTrade {
		return
	}
	n.send(FormatTrade(t))
}

// Signal announces a strong buy or sell decision. Hold decisions and decisions
// below the configured confidence are not sent.
func (n *Notifier) Signal(d model.Decision) {
	if !n.enabled() || !n.settings.NotifyOnSignal {
		return
	}
	if d.Direction == model.DirectionHold || d.Confidence < n.settings.MinConfidenceForSignal {
		return
	}
	n.send(FormatSignal(d))
}

// Error announces a failed cycle
func (n *Notifier) Error(err error) {
	if !n.enabled() || !n.settings.NotifyOnError || err == nil {
		return
	}
	n.send("⚠️ 트레이딩 사이클 오류\n\n" + err.Error())
}

func (n *Notifier) send(text string) {
	if err := n.sender.Send(text); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send notification")
	}
}

// FormatTrade renders a trade message
func FormatTrade(t model.TradeRecord) string {
	var sb strings.Builder
	switch t.Side {
	case model.ActionBuy:
		sb.WriteString("🟢 매수")
	case model.ActionSell:
		sb.WriteString("🔴 매도")
	default:
		sb.WriteString(string(t.Side))
	}
	if t.DryRun {
		sb.WriteString(" (모의)")
	}
	fmt.Fprintf(&sb, " %s\n\n", t.Symbol)
	fmt.Fprintf(&sb, "가격: %.0f\n", t.Price)
	fmt.Fprintf(&sb, "수량: %.8f\n", t.Quantity)
	fmt.Fprintf(&sb, "금액: %.0f\n", t.Total)
	fmt.Fprintf(&sb, "신뢰도: %.0f%%", t.Confidence*100)
	if t.OrderID != "" {
		fmt.Fprintf(&sb, "\n주문 ID: %s", t.OrderID)
	}
	return sb.String()
}

// FormatSignal renders a decision message
func FormatSignal(d model.Decision) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s 신호: %s\n\n", d.Symbol, d.DirectionLabel)
	fmt.Fprintf(&sb, "신뢰도: %.0f%%\n", d.Confidence*100)
	fmt.Fprintf(&sb, "현재가: %.0f (24h %s)\n", d.CurrentPrice, d.PriceChange24h)
	if d.AIOpinion != nil {
		fmt.Fprintf(&sb, "AI: %s (%.0f%%)\n", d.AIOpinion.Direction, d.AIOpinion.Confidence*100)
	}
	sb.WriteString("\n")
	sb.WriteString(d.Reasoning)
	return sb.String()
}
