package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/metrics"
	"github.com/snappy-loop/blogs/internal/prompts"
	"github.com/snappy-loop/blogs/internal/storage"
)

// Image is an ImageAgent backed by one image provider. Providers that return
// inline bytes are uploaded through the Uploader so the agent always yields a URL.
type Image struct {
	name     string
	kind     ProviderKind
	source   ImageSource
	uploader Uploader
	style    prompts.ImageStyle
}

// NewImage returns an image agent. uploader may be nil for providers that host their output.
func NewImage(name string, kind ProviderKind, source ImageSource, uploader Uploader, style prompts.ImageStyle) *Image {
	return &Image{name: name, kind: kind, source: source, uploader: uploader, style: style}
}

func (a *Image) Name() string { return a.name }

// Close releases the provider client when the source holds one.
func (a *Image) Close() error {
	if c, ok := a.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Generate builds the fixed-template prompt and requests a single image.
func (a *Image) Generate(ctx context.Context, keyword string) (string, error) {
	start := time.Now()
	url, err := a.generate(ctx, keyword)
	metrics.AgentDuration.WithLabelValues(a.name, string(a.kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentCalls.WithLabelValues(a.name, string(a.kind), "error").Inc()
		log.Error().Err(err).
			Str("agent", a.name).
			Str("provider", string(a.kind)).
			Str("keyword", keyword).
			Msg("Image generation failed")
		return "", &apperr.GenerationError{Agent: a.name, Provider: string(a.kind), Err: err}
	}
	metrics.AgentCalls.WithLabelValues(a.name, string(a.kind), "ok").Inc()
	return url, nil
}

func (a *Image) generate(ctx context.Context, keyword string) (string, error) {
	img, err := a.source.Generate(ctx, prompts.Image(a.style, keyword))
	if err != nil {
		return "", err
	}
	if img == nil {
		return "", nil
	}
	if img.URL != "" || len(img.Data) == 0 {
		return img.URL, nil
	}
	if a.uploader == nil {
		return "", errors.New("provider returned inline image data but no object storage is configured")
	}
	url, err := a.uploader.Put(ctx, storage.ImageKey(img.MimeType), img.Data, img.MimeType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}
