package llm

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

type imageGenerations interface {
	Generate(ctx context.Context, body openai.ImageGenerateParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// DalleImage generates one hosted 1792x1024 image per call through the OpenAI images API.
type DalleImage struct {
	images imageGenerations
}

// NewDalleImage builds an OpenAI images client.
func NewDalleImage(apiKey string) (*DalleImage, error) {
	if apiKey == "" {
		return nil, errors.New("dalle: api key missing")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &DalleImage{images: &client.Images}, nil
}

// Generate returns the hosted URL of the generated image; an empty response yields an Image with no URL.
func (d *DalleImage) Generate(ctx context.Context, prompt string) (*Image, error) {
	log.Debug().Str("prompt", preview(prompt, 50)).Msg("Generating image (dall-e-3)")

	resp, err := d.images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModelDallE3,
		Prompt: prompt,
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1792x1024,
	})
	if err != nil {
		return nil, err
	}
	img := &Image{Model: string(openai.ImageModelDallE3), MimeType: "image/png"}
	if resp != nil && len(resp.Data) > 0 {
		img.URL = resp.Data[0].URL
	}
	log.Info().Bool("has_url", img.URL != "").Msg("Image generation complete (dall-e-3)")
	return img, nil
}
