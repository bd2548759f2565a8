package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ImagenImage generates 16:9 images with the unified genai SDK's GenerateImages.
type ImagenImage struct {
	client *genai.Client
	model  string
}

// NewImagenImage creates a unified genai client against the Gemini API backend.
func NewImagenImage(ctx context.Context, apiKey, apiEndpoint, model string) (*ImagenImage, error) {
	if apiKey == "" {
		return nil, errors.New("imagen: api key missing")
	}
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if apiEndpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: apiEndpoint}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("imagen: %w", err)
	}
	return &ImagenImage{client: client, model: model}, nil
}

// Generate returns the first generated image's bytes.
func (g *ImagenImage) Generate(ctx context.Context, prompt string) (*Image, error) {
	log.Debug().Str("prompt", preview(prompt, 50)).Str("model", g.model).Msg("Generating image (imagen)")

	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "16:9",
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("imagen: no image in response")
	}
	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	log.Info().Int("image_size_bytes", len(img.ImageBytes)).Str("mime_type", mimeType).Msg("Imagen response")
	return &Image{Data: img.ImageBytes, MimeType: mimeType, Model: g.model}, nil
}
