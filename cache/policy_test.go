package cache

import (
	"testing"
	"time"
)

func TestPolicy_ShouldCache(t *testing.T) {
	tests := []struct {
		name string
		p    Policy
		want bool
	}{
		{"default", DefaultPolicy(), true},
		{"disabled", NoCachePolicy(), false},
		{"namespace only", Policy{NamespaceTTL: map[string]time.Duration{"anthropic": time.Minute}}, true},
		{"namespace disabled", Policy{NamespaceTTL: map[string]time.Duration{"openai": -1}}, false},
	}
	for _, tt := range tests {
		if got := tt.p.ShouldCache(); got != tt.want {
			t.Errorf("%s: ShouldCache() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPolicy_TTL(t *testing.T) {
	p := Policy{
		DefaultTTL: time.Minute,
		MaxTTL:     time.Hour,
		NamespaceTTL: map[string]time.Duration{
			"anthropic":     10 * time.Minute,
			"openai":        2 * time.Hour,
			"openai+backup": -1,
			"explicit-zero": 0,
		},
	}
	tests := []struct {
		namespace string
		want      time.Duration
	}{
		{"unknown", time.Minute},
		{"anthropic", 10 * time.Minute},
		{"openai", time.Hour},
		{"openai+backup", 0},
		{"explicit-zero", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			if got := p.TTL(tt.namespace); got != tt.want {
				t.Errorf("TTL(%q) = %v, want %v", tt.namespace, got, tt.want)
			}
		})
	}

	unbounded := Policy{DefaultTTL: 48 * time.Hour}
	if got := unbounded.TTL("any"); got != 48*time.Hour {
		t.Errorf("TTL without MaxTTL = %v", got)
	}
}
