package secret

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonwraymond/agentops/faults"
)

const refPrefix = "secretref:"

var inlineRef = regexp.MustCompile(`secretref:([^:\s]+):(\S+)`)

// Resolver replaces secret references with provider values.
type Resolver struct {
	providers  map[string]Provider
	allowEmpty bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProvider registers p under its name, replacing any provider of the
// same name.
func WithProvider(p Provider) ResolverOption {
	return func(r *Resolver) { r.providers[p.Name()] = p }
}

// AllowEmpty accepts empty secret values. By default an empty value is an
// error.
func AllowEmpty() ResolverOption {
	return func(r *Resolver) { r.allowEmpty = true }
}

// NewResolver creates a resolver with the env and file providers
// registered.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	for _, p := range []Provider{NewEnvProvider(), NewFileProvider("")} {
		r.providers[p.Name()] = p
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveValue expands environment variables in value and then resolves
// its secret references.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if provider, ref, ok := ParseSecretRef(expanded); ok {
		return r.resolve(ctx, provider, ref)
	}

	matches := inlineRef.FindAllStringSubmatchIndex(expanded, -1)
	out := expanded
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolve(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}

// ResolveInPlace resolves each non-empty string pointed to by values.
func (r *Resolver) ResolveInPlace(ctx context.Context, values ...*string) error {
	for _, v := range values {
		if v == nil || *v == "" {
			continue
		}
		resolved, err := r.ResolveValue(ctx, *v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}

// ParseSecretRef parses a value that is exactly one reference of the form
// secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" || strings.ContainsAny(ref, " \t\n") {
		return "", "", false
	}
	return provider, ref, true
}

// IsSecretRef reports whether value contains a secret reference.
func IsSecretRef(value string) bool {
	return inlineRef.MatchString(value)
}

func (r *Resolver) resolve(ctx context.Context, providerName, ref string) (string, error) {
	fail := func(msg string, cause error) error {
		opts := []faults.Option{
			faults.WithCategory(faults.CategoryConfiguration),
			faults.WithComponent("secret"),
			faults.WithOperation("resolve"),
			faults.WithContextData(map[string]any{"provider": providerName, "ref": ref}),
		}
		if cause != nil {
			return faults.Wrap(cause, msg, opts...)
		}
		return faults.New(msg, opts...)
	}

	p, ok := r.providers[providerName]
	if !ok {
		return "", fail(fmt.Sprintf("secret provider %q is not registered", providerName), nil)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fail(fmt.Sprintf("secret %s:%s could not be resolved", providerName, ref), err)
	}
	if v == "" && !r.allowEmpty {
		return "", fail(fmt.Sprintf("secret %s:%s is empty", providerName, ref), nil)
	}
	return v, nil
}
