// Package snapshot serializes engine state and exchanges it with durable
// storage. Each user has one record per Kind.
package snapshot

import (
	"context"
	"errors"
)

type Kind string

const (
	KindBattle      Kind = "battle"
	KindDefeats     Kind = "defeats"
	KindProgression Kind = "progression"
)

var (
	ErrNotFound        = errors.New("snapshot not found")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Store is durable key-value storage for snapshot payloads.
type Store interface {
	// Load returns ErrNotFound when no record exists.
	Load(ctx context.Context, userID string, kind Kind) ([]byte, error)
	Save(ctx context.Context, userID string, kind Kind, payload []byte) error
	// Delete is a no-op for missing records.
	Delete(ctx context.Context, userID string, kind Kind) error
}
