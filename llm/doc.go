// Package llm provides language model clients for the NPS analysis agents.
//
// Client is implemented by OpenAIClient and AnthropicClient, which call the
// providers' official SDKs, and by ClientFunc for tests and adapters.
// FailoverClient switches between a primary and a backup client.
// GuardedClient wraps any Client with a response cache, request
// coalescing, the resilience executor and an ErrorHandler, so that callers
// get either a response, a fallback response or a classified error.
//
// Provider errors are converted by ClassifyError into faults errors:
// authentication failures are critical configuration errors, rate limits
// and server errors are retryable LLM API failures and deadlines are
// timeouts.
package llm
