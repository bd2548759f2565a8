package llm

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// chatCompletions is the subset of the openai-go chat service used here.
type chatCompletions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIText calls an OpenAI-compatible chat completion endpoint (OpenAI itself, or Cerebras via base URL).
type OpenAIText struct {
	chat chatCompletions
	opts TextOptions
}

// NewOpenAIText builds a chat client. baseURL may be empty for api.openai.com.
func NewOpenAIText(apiKey, baseURL string, opts TextOptions) (*OpenAIText, error) {
	if apiKey == "" {
		return nil, errors.New("openai-compatible provider: api key missing")
	}
	if opts.Model == "" {
		return nil, errors.New("openai-compatible provider: model is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(reqOpts...)
	return &OpenAIText{chat: &client.Chat.Completions, opts: opts}, nil
}

// Complete sends prompt as a single user message and returns the first choice's content.
// A response without choices yields "" and no error.
func (o *OpenAIText) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.opts.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(o.opts.Temperature),
		MaxTokens:   openai.Int(int64(o.opts.MaxTokens)),
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		log.Warn().Str("model", o.opts.Model).Msg("Chat completion returned no choices")
		return "", nil
	}
	content := resp.Choices[0].Message.Content
	logResponse("OpenAIText.Complete", o.opts.Model, content)
	return content, nil
}
