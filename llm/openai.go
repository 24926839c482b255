package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ProviderOpenAI names the OpenAI client.
const ProviderOpenAI = "openai"

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	options Options
}

// NewOpenAIClient creates an OpenAI client. The SDK's own retries are
// disabled; GuardedClient owns retry.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
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
	client := openai.NewClient(reqOpts...)

	return &OpenAIClient{client: &client, options: opts}, nil
}

// Name implements Client.
func (c *OpenAIClient) Name() string { return ProviderOpenAI }

// Generate implements Client.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	if req.Prompt == "" {
		return Response{}, emptyPrompt()
	}
	req = c.options.apply(req)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	})
	if err != nil {
		return Response{}, ClassifyError(ProviderOpenAI, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return Response{}, ClassifyError(ProviderOpenAI, ErrEmptyResponse)
	}

	model := completion.Model
	if model == "" {
		model = req.Model
	}
	return Response{
		Content:  completion.Choices[0].Message.Content,
		Model:    model,
		Provider: ProviderOpenAI,
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
		Latency: time.Since(start),
	}, nil
}
