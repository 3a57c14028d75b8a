package backend

import (
	"context"
	"fmt"

	"bills/internal/log"
	"bills/internal/storage"
	"bills/internal/store"
	"bills/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createSQLiteStore seeds the database on first use only.
func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (*Result, error) {
	seed, err := store.LoadSeedFile(config.SeedFile, config.Location)
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	seeded, err := repo.SeedIfEmpty(ctx, seed)
	if err != nil {
		repo.Close()
		return nil, err
	}
	res := &Result{Store: repo, Cleanup: repo.Close}
	if seeded {
		res.Seeded = len(seed)
	}
	f.logger.InfoContext(ctx, "Using SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", res.Seeded)
	return res, nil
}

func (f *DefaultFactory) createMemoryStore(ctx context.Context, config Config) (*Result, error) {
	s, err := memory.NewFromFile(config.SeedFile, config.Location)
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}
	bills, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	f.logger.InfoContext(ctx, "Using in-memory backend", "seeded", len(bills))
	return &Result{
		Store:   s,
		Cleanup: func() error { return nil },
		Seeded:  len(bills),
	}, nil
}
