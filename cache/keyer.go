package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys from a namespace and a request.
//
// The same namespace and input must produce the same key regardless of map
// iteration order or whether the input is a struct or an equivalent map.
type Keyer interface {
	Key(namespace string, input any) (string, error)
}

// DefaultKeyer builds keys of the form <prefix>:<namespace>:<hash>, where
// hash is the hex SHA-256 of the canonical JSON input.
type DefaultKeyer struct {
	prefix string
}

// NewDefaultKeyer creates a keyer with the given prefix. An empty prefix
// uses "llm".
func NewDefaultKeyer(prefix string) *DefaultKeyer {
	if prefix == "" {
		prefix = "llm"
	}
	return &DefaultKeyer{prefix: prefix}
}

// Key implements Keyer.
func (k *DefaultKeyer) Key(namespace string, input any) (string, error) {
	canonical, err := canonicalize(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize input: %w", err)
	}
	sum := sha256.Sum256(canonical)
	key := fmt.Sprintf("%s:%s:%s", k.prefix, namespace, hex.EncodeToString(sum[:]))
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// canonicalize round-trips v through a generic JSON value. encoding/json
// writes map keys sorted, so structs and maps with the same fields
// serialize identically.
func canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

var _ Keyer = (*DefaultKeyer)(nil)
