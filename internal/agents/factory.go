package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/llm"
	"github.com/snappy-loop/blogs/internal/prompts"
)

// NewCompleter builds the completion client for a text provider kind.
func NewCompleter(ctx context.Context, cfg *config.Config, kind ProviderKind, opts llm.TextOptions) (Completer, error) {
	switch kind {
	case ProviderOpenAI:
		if opts.Model == "" {
			opts.Model = cfg.OpenAIModel
		}
		return llm.NewOpenAIText(cfg.OpenAIAPIKey, "", opts)
	case ProviderCerebras:
		if opts.Model == "" {
			opts.Model = cfg.CerebrasModel
		}
		return llm.NewOpenAIText(cfg.CerebrasAPIKey, cfg.CerebrasBaseURL, opts)
	case ProviderAnthropic:
		if opts.Model == "" {
			opts.Model = cfg.AnthropicModel
		}
		return llm.NewAnthropicText(cfg.AnthropicAPIKey, opts)
	case ProviderGemini:
		if opts.Model == "" {
			opts.Model = cfg.GeminiModelText
		}
		return llm.NewGeminiText(ctx, cfg.GeminiAPIKey, cfg.GeminiAPIEndpoint, opts)
	}
	return nil, fmt.Errorf("%s is not a text provider", kind)
}

// BuildTextChain builds the ordered text agents named by cfg.TextChain.
func BuildTextChain(ctx context.Context, cfg *config.Config) ([]TextAgent, error) {
	if len(cfg.TextChain) == 0 {
		return nil, errors.New("text chain is empty")
	}
	chain := make([]TextAgent, 0, len(cfg.TextChain))
	for i, name := range cfg.TextChain {
		kind, err := ParseProviderKind(name)
		if err != nil {
			return nil, fmt.Errorf("text chain step %d: %w", i+1, err)
		}
		completer, err := NewCompleter(ctx, cfg, kind, llm.TextOptions{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("text chain step %d: %w", i+1, err)
		}
		chain = append(chain, NewText(fmt.Sprintf("text-%d-%s", i+1, kind), kind, completer))
	}
	return chain, nil
}

// BuildImageAgent builds the agent for cfg.ImageProvider. uploader is required for
// providers returning inline bytes (gemini, imagen).
func BuildImageAgent(ctx context.Context, cfg *config.Config, uploader Uploader) (ImageAgent, error) {
	kind, err := ParseProviderKind(cfg.ImageProvider)
	if err != nil {
		return nil, err
	}
	style := prompts.ImageStyle(cfg.ImageStyle)
	if style != prompts.ImageStyleMinimal {
		style = prompts.ImageStylePastel
	}

	var source ImageSource
	switch kind {
	case ProviderDalle:
		source, err = llm.NewDalleImage(cfg.OpenAIAPIKey)
	case ProviderGemini:
		source, err = llm.NewGeminiImage(ctx, cfg.GeminiAPIKey, cfg.GeminiAPIEndpoint, cfg.GeminiModelImage)
	case ProviderImagen:
		source, err = llm.NewImagenImage(ctx, cfg.GeminiAPIKey, cfg.GeminiAPIEndpoint, cfg.ImagenModel)
	default:
		return nil, fmt.Errorf("%s is not an image provider", kind)
	}
	if err != nil {
		return nil, err
	}
	if kind != ProviderDalle && uploader == nil {
		return nil, fmt.Errorf("image provider %s requires object storage (S3_BUCKET)", kind)
	}
	return NewImage("image-"+string(kind), kind, source, uploader, style), nil
}
