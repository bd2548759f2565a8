// Package keywords suggests blog titles for a topic from its trending stories.
package keywords

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/cache"
	"github.com/snappy-loop/blogs/internal/prompts"
)

// Temperature and MaxTokens are the completion settings for title suggestions.
const (
	Temperature = 0.7
	MaxTokens   = 1000
)

// MaxTitles is the number of titles requested from the model and the most Parse returns.
const MaxTitles = 30

var numberPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Completer is a single-prompt chat completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator asks a small model for candidate titles.
type Generator struct {
	completer Completer
	provider  string
	cache     *cache.Loader
}

// NewGenerator returns a generator. loader may be nil to disable caching.
func NewGenerator(completer Completer, provider string, loader *cache.Loader) *Generator {
	return &Generator{completer: completer, provider: provider, cache: loader}
}

// Generate returns one title per non-blank line of the model's answer, with list numbering removed.
func (g *Generator) Generate(ctx context.Context, topic string, stories []prompts.Story) ([]string, error) {
	if g.cache == nil {
		return g.generate(ctx, topic, stories)
	}
	var titles []string
	err := g.cache.GetOrLoad(ctx, strings.ToLower(topic), &titles, func(ctx context.Context) (any, error) {
		return g.generate(ctx, topic, stories)
	})
	return titles, err
}

func (g *Generator) generate(ctx context.Context, topic string, stories []prompts.Story) ([]string, error) {
	content, err := g.completer.Complete(ctx, prompts.Keywords(topic, stories))
	if err != nil {
		return nil, &apperr.GenerationError{Agent: "keywords", Provider: g.provider, Err: err}
	}
	titles := Parse(content)
	log.Info().Str("topic", topic).Int("stories", len(stories)).Int("titles", len(titles)).Msg("Keywords generated")
	return titles, nil
}

// Parse splits a model answer into at most MaxTitles titles.
func Parse(content string) []string {
	titles := []string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(numberPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		titles = append(titles, line)
		if len(titles) == MaxTitles {
			break
		}
	}
	return titles
}
