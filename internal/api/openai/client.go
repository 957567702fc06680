package openai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/Alias1177/BitTrader/internal/model"
)

// Client wraps the OpenAI API client
type Client struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewClient creates a new OpenAI client. An empty model uses GPT-4o.
func NewClient(apiKey, modelName string) *Client {
	return newClient(openai.DefaultConfig(apiKey), modelName)
}

// NewClientWithBaseURL creates a client against an OpenAI-compatible endpoint
func NewClientWithBaseURL(apiKey, modelName, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newClient(cfg, modelName)
}

func newClient(cfg openai.ClientConfig, modelName string) *Client {
	if modelName == "" {
		modelName = openai.GPT4o
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
		logger: log.With().Str("component", "openai_client").Logger(),
	}
}

// GenerateCompletion sends a prompt to OpenAI and returns the completion
func (c *Client) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("prompt", prompt).Msg("Sending prompt to OpenAI")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		},
	)

	if err != nil {
		c.logger.Error().Err(err).Msg("OpenAI API error")
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("OpenAI returned empty choices")
		return "", fmt.Errorf("empty completion")
	}

	return resp.Choices[0].Message.Content, nil
}

// Opinion asks the model to judge the local decision and parses its answer
func (c *Client) Opinion(ctx context.Context, req model.OpinionRequest) (model.AIOpinion, error) {
	prompt, err := FormatDecisionPrompt(req)
	if err != nil {
		return model.AIOpinion{}, err
	}

	text, err := c.GenerateCompletion(ctx, prompt)
	if err != nil {
		return model.AIOpinion{}, fmt.Errorf("completion: %w", err)
	}

	op, err := ParseOpinion(text)
	if err != nil {
		c.logger.Warn().Str("response", text).Msg("Unparseable AI answer")
		return model.AIOpinion{}, err
	}

	c.logger.Info().
		Str("decision", string(op.Direction)).
		Float64("confidence", op.Confidence).
		Msg("AI opinion received")
	return op, nil
}
