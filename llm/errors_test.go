package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jonwraymond/agentops/faults"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category faults.Category
		critical bool
	}{
		{"unauthorized", &StatusError{Status: 401, Message: "invalid key"}, faults.CategoryConfiguration, true},
		{"forbidden", &StatusError{Status: 403}, faults.CategoryConfiguration, true},
		{"rate limited", &StatusError{Status: 429}, faults.CategoryLLMAPIFailure, false},
		{"server error", &StatusError{Status: 503}, faults.CategoryLLMAPIFailure, false},
		{"bad request", &StatusError{Status: 400}, faults.CategoryValidation, false},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), faults.CategoryTimeoutError, false},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, faults.CategoryNetworkError, false},
		{"plain", errors.New("unexpected EOF"), faults.CategoryLLMAPIFailure, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyError("openai", tt.err)
			if got := faults.CategoryOf(err); got != tt.category {
				t.Errorf("category = %q, want %q", got, tt.category)
			}
			if faults.IsCritical(err) != tt.critical {
				t.Errorf("IsCritical = %v, want %v", faults.IsCritical(err), tt.critical)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("error %v does not wrap the provider error", err)
			}
		})
	}
}

func TestClassifyError_Messages(t *testing.T) {
	rate := ClassifyError("anthropic", &StatusError{Status: 429})
	if got := rate.(*faults.Error).Context().ErrorMessage; got != "anthropic rate limit exceeded" {
		t.Errorf("message = %q", got)
	}
	ec := faults.Classify(rate)
	if ec.Component != DefaultComponent {
		t.Errorf("component = %q, want %q", ec.Component, DefaultComponent)
	}
	if ec.ContextData["status_code"] != 429 || ec.ContextData["api_endpoint"] != "anthropic" {
		t.Errorf("context data = %v", ec.ContextData)
	}
}

func TestClassifyError_PassThrough(t *testing.T) {
	if ClassifyError("openai", nil) != nil {
		t.Error("ClassifyError(nil) != nil")
	}
	if err := ClassifyError("openai", context.Canceled); err != context.Canceled {
		t.Errorf("canceled = %v, want it unchanged", err)
	}
	pre := faults.DataValidation("prompt", "", "prompt is empty")
	if err := ClassifyError("openai", pre); err != error(pre) {
		t.Errorf("faults error = %v, want it unchanged", err)
	}
}
