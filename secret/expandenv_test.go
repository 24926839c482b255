package secret

import (
	"strings"
	"testing"

	"github.com/jonwraymond/agentops/faults"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("AGENTOPS_MODEL", "gpt-4o")
	t.Setenv("AGENTOPS_EMPTY", "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced", "model=${AGENTOPS_MODEL}", "model=gpt-4o"},
		{"bare", "model=$AGENTOPS_MODEL", "model=gpt-4o"},
		{"set but empty", "x${AGENTOPS_EMPTY}y", "xy"},
		{"bare missing", "x$AGENTOPS_NOT_SET_ANYWHERE", "x"},
		{"escape", "$$${AGENTOPS_MODEL}", "$gpt-4o"},
		{"plain", "no variables", "no variables"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.in)
			if err != nil {
				t.Fatalf("ExpandEnvStrict() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict_MissingVarErrors(t *testing.T) {
	t.Setenv("PRESENT", "ok")

	_, err := ExpandEnvStrict("a=${PRESENT} b=${ZZ_MISSING} c=${AA_MISSING} d=${ZZ_MISSING}")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "AA_MISSING, ZZ_MISSING") {
		t.Errorf("error should list sorted unique names, got: %v", err)
	}
	if faults.CategoryOf(err) != faults.CategoryConfiguration {
		t.Errorf("category = %q, want configuration_error", faults.CategoryOf(err))
	}
}
