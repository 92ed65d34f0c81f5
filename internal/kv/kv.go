// Package kv holds the persistent key/value backends the cart snapshot is
// written to.
package kv

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("kv: empty key")

// Store persists opaque values under string keys. Load reports ok=false for
// a missing key.
type Store interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
