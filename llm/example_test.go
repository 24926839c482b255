package llm_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/agentops/llm"
	"github.com/jonwraymond/agentops/recovery"
	"github.com/jonwraymond/agentops/resilience"
)

func ExampleGuardedClient() {
	down := llm.NewClientFunc("openai", func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{}, &llm.StatusError{Status: 502, Message: "bad gateway"}
	})

	h := recovery.NewErrorHandler()
	recovery.InstallDefaults(h)
	client, _ := llm.NewGuardedClient(down, h, llm.GuardedConfig{
		Policy:   resilience.NewLinearBackoff(resilience.LinearBackoffConfig{MaxRetries: -1}),
		Fallback: llm.StaticFallback("analysis unavailable"),
	})

	resp, err := client.Generate(context.Background(), llm.Request{Prompt: "Summarize the detractor comments."})
	fmt.Println(resp.Content, resp.Fallback, err)
	// Output: analysis unavailable true <nil>
}

func ExampleFailoverClient() {
	primary := llm.NewClientFunc("openai", func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{}, llm.ClassifyError("openai", &llm.StatusError{Status: 503})
	})
	backup := llm.NewClientFunc("anthropic", func(_ context.Context, req llm.Request) (llm.Response, error) {
		return llm.Response{Content: "ok", Provider: "anthropic"}, nil
	})

	f, _ := llm.NewFailoverClient(primary, backup, llm.FailoverConfig{})
	resp, _ := f.Generate(context.Background(), llm.Request{Prompt: "hi"})
	fmt.Println(resp.Provider, f.Active().Name())
	// Output: anthropic anthropic
}
