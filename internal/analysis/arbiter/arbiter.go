package arbiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/config"
	"github.com/Alias1177/BitTrader/internal/model"
)

// maxAgreeConfidence caps the confidence reached through an agreement boost
const maxAgreeConfidence = 0.95

// localWeight is the weight of the local decision when the AI disagrees in advisory mode
const localWeight = 1.0

// ErrInvalidOpinion is returned for opinions that fail validation
var ErrInvalidOpinion = errors.New("invalid ai opinion")

// OpinionProvider produces an AI opinion on a decision
type OpinionProvider interface {
	Opinion(ctx context.Context, req model.OpinionRequest) (model.AIOpinion, error)
}

// Arbiter reconciles the local decision with an AI opinion
type Arbiter struct {
	settings config.AISettings
	provider OpinionProvider
	validate *validator.Validate
	logger   zerolog.Logger
}

// New creates an arbiter. A nil provider disables arbitration.
func New(settings config.AISettings, provider OpinionProvider) *Arbiter {
	return &Arbiter{
		settings: settings,
		provider: provider,
		validate: validator.New(),
		logger:   log.With().Str("component", "ai_arbiter").Logger(),
	}
}

type opinionResult struct {
	opinion model.AIOpinion
	err     error
}

// Arbitrate asks the provider for an opinion and applies it to the decision.
// The input is never modified. When the provider fails, times out or answers
// with an invalid opinion, the returned decision equals the input except for AIError.
func (a *Arbiter) Arbitrate(ctx context.Context, d model.Decision, req model.OpinionRequest) model.Decision {
	if !a.settings.UseAI || a.provider == nil {
		return d.Clone()
	}

	op, err := a.fetch(ctx, req)
	if err != nil {
		a.logger.Warn().Err(err).Msg("AI opinion unavailable, keeping local decision")
		out := d.Clone()
		out.AIError = err.Error()
		return out
	}

	return Apply(d, op, a.settings)
}

func (a *Arbiter) fetch(ctx context.Context, req model.OpinionRequest) (model.AIOpinion, error) {
	ctx, cancel := context.WithTimeout(ctx, a.settings.Timeout)
	defer cancel()

	// buffered so a provider that ignores cancellation does not leak the goroutine
	ch := make(chan opinionResult, 1)
	go func() {
		op, err := a.provider.Opinion(ctx, req)
		ch <- opinionResult{opinion: op, err: err}
	}()

	var res opinionResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		return model.AIOpinion{}, fmt.Errorf("ai opinion: %w", ctx.Err())
	}

	if res.err != nil {
		return model.AIOpinion{}, fmt.Errorf("ai opinion: %w", res.err)
	}
	if err := a.validate.Struct(res.opinion); err != nil {
		return model.AIOpinion{}, fmt.Errorf("%w: %v", ErrInvalidOpinion, err)
	}
	if math.IsNaN(res.opinion.Confidence) {
		return model.AIOpinion{}, fmt.Errorf("%w: confidence is NaN", ErrInvalidOpinion)
	}
	return res.opinion, nil
}

// Apply combines a validated opinion with the local decision
func Apply(d model.Decision, op model.AIOpinion, settings config.AISettings) model.Decision {
	out := d.Clone()
	opinion := op.Clone()
	out.AIOpinion = &opinion
	out.AIError = ""

	origDir := d.Direction
	origConf := d.Confidence
	out.OriginalDirection = &origDir
	out.OriginalConfidence = &origConf

	agrees := op.Direction == d.Direction
	out.AIAgrees = &agrees

	switch {
	case settings.AIPrimaryDecision:
		out.Direction = op.Direction
		out.Confidence = op.Confidence
		if agrees {
			out.Confidence = boost(op.Confidence, settings.ConfidenceBoost)
		}
	case agrees:
		out.Confidence = boost(d.Confidence, settings.ConfidenceBoost)
	default:
		out.Direction, out.Confidence = resolveConflict(d, op, settings.Weight)
	}

	strength := d.AvgSignalStrength
	if settings.AIPrimaryDecision || out.Direction != d.Direction {
		strength = impliedStrength(out.Direction, out.Confidence)
	}
	out.DirectionLabel = model.DirectionLabel(out.Direction, strength)
	out.Reasoning, out.OriginalReasoning = reasoning(d, out, op, settings.OverrideReasoning)

	return out
}

// impliedStrength inverts confidence = 0.5 + |strength|/2 so the label of an
// AI-set direction reflects its own confidence instead of the local signals
func impliedStrength(dir model.Direction, conf float64) float64 {
	s := model.Clamp(2*conf-1, 0, 1)
	switch dir {
	case model.DirectionBuy:
		return s
	case model.DirectionSell:
		return -s
	}
	return 0
}

// boost raises confidence by b without crossing the agreement cap.
// A confidence already above the cap is left alone.
func boost(conf, b float64) float64 {
	if conf >= maxAgreeConfidence {
		return conf
	}
	return math.Min(maxAgreeConfidence, conf+b)
}

// resolveConflict picks the side with the larger weighted confidence and
// scales its confidence by that side's share of the total.
func resolveConflict(d model.Decision, op model.AIOpinion, aiWeight float64) (model.Direction, float64) {
	local := d.Confidence * localWeight
	ai := op.Confidence * aiWeight
	total := local + ai
	if total <= 0 {
		return d.Direction, d.Confidence
	}
	if ai > local {
		return op.Direction, model.ClampUnit(op.Confidence * ai / total)
	}
	return d.Direction, model.ClampUnit(d.Confidence * local / total)
}

func reasoning(local, out model.Decision, op model.AIOpinion, override bool) (reasoning, original string) {
	if !override {
		return local.Reasoning + "\n\n[AI] " + op.Reasoning, ""
	}

	var note string
	if op.Direction == local.Direction {
		note = fmt.Sprintf("local analysis agrees (%s)", local.Direction)
	} else {
		note = fmt.Sprintf("local analysis said %s (confidence %.0f%%)", local.Direction, local.Confidence*100)
	}

	lines := []string{
		fmt.Sprintf("[AI] %s (confidence %.0f%%)", out.DirectionLabel, out.Confidence*100),
		local.SignalCounts.String(),
		note,
		strings.TrimSpace(op.Reasoning),
	}
	return strings.Join(lines, "\n"), local.Reasoning
}
