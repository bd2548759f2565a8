// Package agents wraps external text and image providers behind uniform agent contracts.
package agents

import (
	"context"
	"fmt"

	"github.com/snappy-loop/blogs/internal/llm"
)

// ProviderKind identifies the backend an agent was built for. It is chosen at
// construction time from configuration.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderCerebras  ProviderKind = "cerebras"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderGemini    ProviderKind = "gemini"
	ProviderDalle     ProviderKind = "dalle"
	ProviderImagen    ProviderKind = "imagen"
)

// ParseProviderKind validates a configured provider name.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch k := ProviderKind(s); k {
	case ProviderOpenAI, ProviderCerebras, ProviderAnthropic, ProviderGemini, ProviderDalle, ProviderImagen:
		return k, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// TextAgent generates markdown for a keyword, revising previousDraft when it is non-empty.
type TextAgent interface {
	Name() string
	Generate(ctx context.Context, keyword, previousDraft string) (string, error)
}

// ImageAgent generates an illustration for a keyword and returns its URL ("" when the provider returned none).
type ImageAgent interface {
	Name() string
	Generate(ctx context.Context, keyword string) (string, error)
}

// Completer is a single-prompt chat completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ImageSource produces one image for a prompt.
type ImageSource interface {
	Generate(ctx context.Context, prompt string) (*llm.Image, error)
}

// Uploader stores bytes and returns an addressable URL.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
