package services

import (
	"context"

	"github.com/snappy-loop/blogs/internal/prompts"
)

// TrendingSource looks up trending stories (news.Client).
type TrendingSource interface {
	Trending(ctx context.Context, topic string) ([]prompts.Story, error)
}

// KeywordSource suggests blog titles (keywords.Generator).
type KeywordSource interface {
	Generate(ctx context.Context, topic string, stories []prompts.Story) ([]string, error)
}

// Archiver stores archived copies in object storage (storage.Client).
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
