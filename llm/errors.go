package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/jonwraymond/agentops/faults"
)

// Sentinel errors.
var (
	ErrNoClient      = errors.New("llm: client is required")
	ErrMissingAPIKey = errors.New("llm: API key is required")
	ErrMissingModel  = errors.New("llm: model is required")
	ErrEmptyResponse = errors.New("llm: provider returned no content")
	ErrEmptyPrompt   = errors.New("llm: prompt is empty")
)

func emptyPrompt() error {
	return faults.DataValidation("prompt", nil, "prompt is empty",
		faults.WithCause(ErrEmptyPrompt),
		faults.WithComponent("llm_client"),
	)
}

// ClassifyError converts a provider error into a faults error tagged with
// the provider as endpoint. Cancellation and errors that already carry a
// category are returned unchanged.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if _, ok := faults.As(err); ok {
		return err
	}

	status := statusCode(err)
	data := map[string]any{"provider": provider}
	if status != 0 {
		data["status_code"] = status
	}
	base := []faults.Option{faults.WithCause(err), faults.WithContextData(data)}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return faults.Timeout(provider+".generate", provider+" request timed out",
			append(base, faults.WithComponent("llm_client"))...)
	case status == 401 || status == 403:
		return faults.LLMAPI(provider+" authentication failed", provider,
			append(base,
				faults.WithCategory(faults.CategoryConfiguration),
				faults.WithSeverity(faults.SeverityCritical),
			)...)
	case status == 429:
		return faults.LLMAPI(provider+" rate limit exceeded", provider,
			append(base, faults.WithContextData(map[string]any{"reason": "rate_limit"}))...)
	case status >= 500:
		return faults.LLMAPI(fmt.Sprintf("%s server error (%d)", provider, status), provider, base...)
	case status >= 400:
		return faults.LLMAPI(fmt.Sprintf("%s rejected the request (%d)", provider, status), provider,
			append(base, faults.WithCategory(faults.CategoryValidation))...)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return faults.LLMAPI(provider+" connection failed", provider,
			append(base, faults.WithCategory(faults.CategoryNetworkError))...)
	}
	return faults.LLMAPI(provider+" request failed", provider, base...)
}

func statusCode(err error) int {
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return oerr.StatusCode
	}
	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return aerr.StatusCode
	}
	var serr interface{ HTTPStatus() int }
	if errors.As(err, &serr) {
		return serr.HTTPStatus()
	}
	return 0
}

// StatusError is a provider failure with an HTTP status, for clients that
// do not go through an SDK.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// HTTPStatus returns the status code.
func (e *StatusError) HTTPStatus() int { return e.Status }
