package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret
// values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates the "env" provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Name implements Provider.
func (p *EnvProvider) Name() string { return "env" }

// Resolve implements Provider.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(ref)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", ref)
	}
	return v, nil
}

// FileProvider resolves a reference as a file path and returns the file's
// contents with surrounding whitespace trimmed. This matches secrets
// mounted by Docker and Kubernetes.
type FileProvider struct {
	root string
}

// NewFileProvider creates the "file" provider. A non-empty root restricts
// references to files under it; relative references are joined to root.
func NewFileProvider(root string) *FileProvider {
	return &FileProvider{root: root}
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file" }

// Resolve implements Provider.
func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Clean(ref)
	if p.root != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.root, path)
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("secret file %s is outside %s", ref, p.root)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret file %s: %w", ref, err)
	}
	return strings.TrimSpace(string(data)), nil
}

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*FileProvider)(nil)
)
