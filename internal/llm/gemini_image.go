package llm

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// GeminiImage generates images through Gemini with strict IMAGE response modality.
// The result carries inline bytes; callers upload them somewhere addressable.
type GeminiImage struct {
	client *genai.Client
	model  string
}

// NewGeminiImage creates the genai client. apiEndpoint optionally overrides the service endpoint.
func NewGeminiImage(ctx context.Context, apiKey, apiEndpoint, model string) (*GeminiImage, error) {
	if apiKey == "" {
		return nil, errors.New("gemini image: api key missing")
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(apiEndpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini image: %w", err)
	}
	return &GeminiImage{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiImage) Close() error {
	return g.client.Close()
}

// Generate returns the first image blob in the response. No blob is an error (no fallback).
func (g *GeminiImage) Generate(ctx context.Context, prompt string) (*Image, error) {
	log.Debug().Str("prompt", preview(prompt, 50)).Str("model", g.model).Msg("Generating image (gemini)")

	model := g.client.GenerativeModel(g.model)
	setResponseModality(model, []string{"IMAGE"})

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	for i, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for j, part := range cand.Content.Parts {
			blob, ok := part.(genai.Blob)
			if !ok || len(blob.Data) == 0 {
				continue
			}
			mimeType := blob.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			log.Info().
				Int("image_size_bytes", len(blob.Data)).
				Str("mime_type", mimeType).
				Int("candidate", i).
				Int("part", j).
				Msg("Gemini response (image blob)")
			return &Image{Data: blob.Data, MimeType: mimeType, Model: g.model}, nil
		}
	}

	log.Warn().
		Str("model", g.model).
		Int("candidates", len(resp.Candidates)).
		Msg("No image blob in Gemini response")
	return nil, fmt.Errorf("no image blob in response (strict modality: expected IMAGE)")
}

// setResponseModality sets model.ResponseModality when the SDK exposes it; no-op otherwise.
func setResponseModality(model *genai.GenerativeModel, modalities []string) {
	v := reflect.ValueOf(model).Elem()
	f := v.FieldByName("ResponseModality")
	if !f.IsValid() || !f.CanSet() {
		log.Debug().Msg("ResponseModality not available on GenerativeModel")
		return
	}
	if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
		f.Set(reflect.ValueOf(modalities))
	}
}
