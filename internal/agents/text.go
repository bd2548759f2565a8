package agents

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/metrics"
	"github.com/snappy-loop/blogs/internal/prompts"
)

// Text is a TextAgent backed by one completion provider.
type Text struct {
	name      string
	kind      ProviderKind
	completer Completer
}

// NewText returns a text agent. name labels the agent in errors, logs and metrics.
func NewText(name string, kind ProviderKind, completer Completer) *Text {
	return &Text{name: name, kind: kind, completer: completer}
}

func (a *Text) Name() string { return a.name }

// Generate issues exactly one completion call. Provider failures are returned as
// *apperr.GenerationError and are not retried.
func (a *Text) Generate(ctx context.Context, keyword, previousDraft string) (string, error) {
	start := time.Now()
	content, err := a.completer.Complete(ctx, prompts.Build(keyword, previousDraft))
	metrics.AgentDuration.WithLabelValues(a.name, string(a.kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentCalls.WithLabelValues(a.name, string(a.kind), "error").Inc()
		log.Error().Err(err).
			Str("agent", a.name).
			Str("provider", string(a.kind)).
			Str("keyword", keyword).
			Msg("Text generation failed")
		return "", &apperr.GenerationError{Agent: a.name, Provider: string(a.kind), Err: err}
	}
	metrics.AgentCalls.WithLabelValues(a.name, string(a.kind), "ok").Inc()
	log.Debug().
		Str("agent", a.name).
		Str("keyword", keyword).
		Bool("revision", previousDraft != "").
		Int("content_len", len(content)).
		Dur("elapsed", time.Since(start)).
		Msg("Text generated")
	return content, nil
}
