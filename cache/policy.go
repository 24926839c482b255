package cache

import "time"

// Policy decides how long LLM responses stay cached. Namespaces are the
// client names a GuardedClient caches under, so one provider's answers can
// be kept longer than another's.
type Policy struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration

	// NamespaceTTL overrides DefaultTTL per namespace. A negative entry
	// disables caching for that namespace.
	NamespaceTTL map[string]time.Duration
}

// DefaultPolicy keeps responses for an hour and never longer than a day.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: time.Hour, MaxTTL: 24 * time.Hour}
}

// NoCachePolicy disables caching.
func NoCachePolicy() Policy { return Policy{} }

// ShouldCache reports whether any namespace can be cached.
func (p Policy) ShouldCache() bool {
	if p.DefaultTTL > 0 {
		return true
	}
	for _, ttl := range p.NamespaceTTL {
		if ttl > 0 {
			return true
		}
	}
	return false
}

// TTL returns the lifetime for entries in namespace, clamped to MaxTTL.
// Zero means the namespace is not cached.
func (p Policy) TTL(namespace string) time.Duration {
	ttl, ok := p.NamespaceTTL[namespace]
	switch {
	case !ok || ttl == 0:
		ttl = p.DefaultTTL
	case ttl < 0:
		return 0
	}
	if ttl < 0 {
		return 0
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		return p.MaxTTL
	}
	return ttl
}
