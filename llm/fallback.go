package llm

import (
	"context"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/recovery"
)

// DefaultFallbackContent is the answer given when no model is reachable.
const DefaultFallbackContent = "AI analysis is unavailable, please retry later."

// ProviderFallback is the provider recorded on fallback responses.
const ProviderFallback = "fallback"

// StaticFallback returns a fallback strategy that answers every failed
// request with content. An empty content uses DefaultFallbackContent.
func StaticFallback(content string) recovery.FallbackFunc {
	if content == "" {
		content = DefaultFallbackContent
	}
	return func(_ context.Context, ec faults.ErrorContext) (any, error) {
		return Response{
			Content:  content,
			Model:    ProviderFallback,
			Provider: ProviderFallback,
			Fallback: true,
			ErrorID:  ec.ErrorID,
		}, nil
	}
}
