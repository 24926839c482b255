package secret

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("AGENTOPS_TEST_KEY", "sk-test")
	p := NewEnvProvider()

	if p.Name() != "env" {
		t.Errorf("Name() = %q", p.Name())
	}
	got, err := p.Resolve(context.Background(), "AGENTOPS_TEST_KEY")
	if err != nil || got != "sk-test" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
	if _, err := p.Resolve(context.Background(), "AGENTOPS_TEST_KEY_MISSING"); err == nil {
		t.Error("Resolve of an unset variable should fail")
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openai_key")
	if err := os.WriteFile(path, []byte("sk-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		root    string
		ref     string
		want    string
		wantErr bool
	}{
		{"absolute", "", path, "sk-file", false},
		{"relative to root", dir, "openai_key", "sk-file", false},
		{"absolute under root", dir, path, "sk-file", false},
		{"escapes root", dir, "../etc/passwd", "", true},
		{"missing", "", filepath.Join(dir, "nope"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFileProvider(tt.root).Resolve(context.Background(), tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileProvider("").Resolve(ctx, "/dev/null"); err == nil {
		t.Error("Resolve with a canceled context should fail")
	}
}
