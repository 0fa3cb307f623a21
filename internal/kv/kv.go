package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kv: key not found")

// ErrCorrupt is returned by GetJSON when a stored value fails to
// decode. Callers treat the collection as empty instead of failing.
var ErrCorrupt = errors.New("kv: corrupt value")

// Store is a flat key-value namespace. The portal keeps each domain
// collection serialized wholesale under a single key, so an
// implementation only needs three operations. Remove is a no-op for
// missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value stored under key into v. A missing key
// leaves v untouched and returns nil; a value that fails to decode
// returns an error wrapping ErrCorrupt.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrCorrupt, key, err)
	}
	return nil
}

// SetJSON serializes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
