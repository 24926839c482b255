package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ProviderAnthropic names the Anthropic client.
const ProviderAnthropic = "anthropic"

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	client  *anthropic.Client
	options Options
}

// NewAnthropicClient creates an Anthropic client. The SDK's own retries are
// disabled; GuardedClient owns retry.
func NewAnthropicClient(opts Options) (*AnthropicClient, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Model == "" {
		return nil, ErrMissingModel
	}
	opts = opts.withDefaults()

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	return &AnthropicClient{client: &client, options: opts}, nil
}

// Name implements Client.
func (c *AnthropicClient) Name() string { return ProviderAnthropic }

// Generate implements Client.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (Response, error) {
	if req.Prompt == "" {
		return Response{}, emptyPrompt()
	}
	req = c.options.apply(req)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, ClassifyError(ProviderAnthropic, err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return Response{}, ClassifyError(ProviderAnthropic, ErrEmptyResponse)
	}

	model := string(message.Model)
	if model == "" {
		model = req.Model
	}
	return Response{
		Content:  sb.String(),
		Model:    model,
		Provider: ProviderAnthropic,
		Usage: Usage{
			PromptTokens:     message.Usage.InputTokens,
			CompletionTokens: message.Usage.OutputTokens,
			TotalTokens:      message.Usage.InputTokens + message.Usage.OutputTokens,
		},
		Latency: time.Since(start),
	}, nil
}
