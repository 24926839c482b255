package llm

import (
	"context"
	"time"
)

// Request is a single prompt to a model.
type Request struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Usage counts the tokens of one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Response is a model's answer.
type Response struct {
	Content  string        `json:"content"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
	Usage    Usage         `json:"usage"`
	Latency  time.Duration `json:"latency"`

	// Cached is set when the response came from the cache.
	Cached bool `json:"cached"`

	// Fallback is set when the response was produced by a fallback
	// strategy instead of a model. Fallback responses are never cached.
	Fallback bool `json:"fallback"`

	// ErrorID links a fallback response to the handled error.
	ErrorID string `json:"error_id,omitempty"`
}

// Client generates responses.
//
// Implementations must be safe for concurrent use and return errors
// classified by ClassifyError.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc struct {
	name string
	fn   func(context.Context, Request) (Response, error)
}

// NewClientFunc creates a Client named name that calls fn.
func NewClientFunc(name string, fn func(context.Context, Request) (Response, error)) *ClientFunc {
	return &ClientFunc{name: name, fn: fn}
}

// Name implements Client.
func (f *ClientFunc) Name() string { return f.name }

// Generate implements Client.
func (f *ClientFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f.fn(ctx, req)
}

// Options holds the request defaults shared by the SDK clients.
type Options struct {
	APIKey string

	// Model is used when a request names none.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Temperature is used when a request has none.
	// Default: 0.1
	Temperature float64

	// MaxTokens is used when a request has none.
	// Default: 4000
	MaxTokens int
}

func (o Options) withDefaults() Options {
	if o.Temperature <= 0 {
		o.Temperature = 0.1
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 4000
	}
	return o
}

func (o Options) apply(req Request) Request {
	if req.Model == "" {
		req.Model = o.Model
	}
	if req.Temperature <= 0 {
		req.Temperature = o.Temperature
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = o.MaxTokens
	}
	return req
}
