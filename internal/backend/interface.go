// Package backend builds the bill store selected by configuration.
package backend

import (
	"context"

	"bills/internal/store"
)

// CleanupFunc releases the resources held by a store.
type CleanupFunc func() error

// Result contains the store and its cleanup function. Seeded counts the bills
// loaded from the seed file.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
	Seeded  int
}

// Factory creates stores based on the provided config
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Type represents the kind of store
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
