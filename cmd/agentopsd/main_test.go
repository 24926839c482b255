package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || out != "agentopsd dev\n" {
		t.Errorf("version = %q, %v", out, err)
	}
}

func TestConfigValidate(t *testing.T) {
	out, err := execute(t, "config", "validate")
	if err != nil || !strings.Contains(out, "configuration is valid") {
		t.Errorf("validate defaults = %q, %v", out, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("retry:\n  strategy: fibonacci\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "validate", "--config", bad); err == nil || !strings.Contains(err.Error(), "retry.strategy") {
		t.Errorf("validate bad config error = %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	t.Setenv("AGENTOPS_OPENAI_API_KEY", "sk-very-secret")

	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "sk-very-secret") || !strings.Contains(out, redacted) {
		t.Errorf("config show did not redact the key:\n%s", out)
	}
	if !strings.Contains(out, "service_name: agentops") {
		t.Errorf("config show output missing observe section:\n%s", out)
	}
}

func TestLoadConfig_DotenvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(env, []byte("AGENTOPS_SERVICE_NAME=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("AGENTOPS_SERVICE_NAME") })

	cfg, err := loadConfig(t.Context(), &rootFlags{envFile: env})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Observe.ServiceName != "from-dotenv" {
		t.Errorf("ServiceName = %q, want from-dotenv", cfg.Observe.ServiceName)
	}
}
