package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bills/internal/core"
	"bills/internal/store"
)

// Store keeps bills in process memory. Items stay in insertion order; List sorts a copy.
type Store struct {
	mu    sync.Mutex
	items []core.Bill
}

func New(bills ...core.Bill) *Store {
	s := &Store{}
	s.items = append(s.items, bills...)
	return s
}

// NewFromFile seeds the store from a JSON seed file. A missing file gives an empty store.
func NewFromFile(path string, loc *time.Location) (*Store, error) {
	bills, err := store.LoadSeedFile(path, loc)
	if err != nil {
		return nil, err
	}
	return New(bills...), nil
}

func (s *Store) List(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	out := append([]core.Bill(nil), s.items...)
	s.mu.Unlock()
	core.SortByDateDesc(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Bill{}, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
}

// Append validates every bill before storing any of them.
func (s *Store) Append(_ context.Context, bills ...core.Bill) error {
	for _, b := range bills {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bills {
		if s.indexOf(b.ID) >= 0 {
			return fmt.Errorf("duplicate bill id %s", b.ID)
		}
	}
	s.items = append(s.items, bills...)
	return nil
}

func (s *Store) Update(_ context.Context, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(b.ID)
	if i < 0 {
		return fmt.Errorf("update %s: %w", b.ID, store.ErrNotFound)
	}
	s.items[i] = b
	return nil
}

func (s *Store) Remove(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Bill{}, fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}
	b := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return b, nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
