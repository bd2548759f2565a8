package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
)

// LangchainText adapts any langchaingo model to a single-prompt completion.
type LangchainText struct {
	model llms.Model
	opts  TextOptions
}

// NewLangchainText wraps an already-constructed langchaingo model.
func NewLangchainText(model llms.Model, opts TextOptions) *LangchainText {
	return &LangchainText{model: model, opts: opts}
}

// NewAnthropicText builds a Claude-backed completion client.
func NewAnthropicText(apiKey string, opts TextOptions) (*LangchainText, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key missing")
	}
	model, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(opts.Model))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return NewLangchainText(model, opts), nil
}

// NewGeminiText builds a Gemini-backed completion client. apiEndpoint optionally overrides the base URL.
func NewGeminiText(ctx context.Context, apiKey, apiEndpoint string, opts TextOptions) (*LangchainText, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key missing")
	}
	gOpts := []googleai.Option{googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(opts.Model)}
	if apiEndpoint != "" {
		if hc := httpClientForEndpoint(apiEndpoint); hc != nil {
			gOpts = append(gOpts, googleai.WithHTTPClient(hc))
		}
	}
	model, err := googleai.New(ctx, gOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return NewLangchainText(model, opts), nil
}

// Complete sends prompt as one human message. A response without choices yields "".
func (l *LangchainText) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	resp, err := l.model.GenerateContent(ctx, messages,
		llms.WithTemperature(l.opts.Temperature),
		llms.WithMaxTokens(l.opts.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		log.Warn().Str("model", l.opts.Model).Msg("Model returned no choices")
		return "", nil
	}
	content := resp.Choices[0].Content
	logResponse("LangchainText.Complete", l.opts.Model, content)
	return content, nil
}
