// Package repository collects mapped years from the worker fan-out.
//
// The store is write-once per year: workers for different years never
// contend on a key, and re-putting the same year is rejected so a bug in the
// fan-out cannot silently overwrite finished work.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ecotone-audio/ecotone/internal/domain/model"
)

// Store receives per-year results and hands them back sorted.
type Store interface {
	// Put stores one year's music. Fails with ErrDuplicateYear if the year
	// was already stored.
	Put(ctx context.Context, ym model.YearMusic) error

	// Snapshot returns all stored years in ascending year order.
	Snapshot(ctx context.Context) []model.YearMusic

	// Count returns the number of stored years.
	Count(ctx context.Context) int
}

// InMemoryStore implements Store with a mutex-guarded map.
type InMemoryStore struct {
	mu    sync.RWMutex
	years map[int]model.YearMusic
}

// NewInMemoryStore creates an empty result store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{years: make(map[int]model.YearMusic)}
}

// Put stores one year's music.
func (s *InMemoryStore) Put(_ context.Context, ym model.YearMusic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.years[ym.Year]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateYear, ym.Year)
	}
	s.years[ym.Year] = ym
	return nil
}

// Snapshot returns all stored years in ascending year order.
func (s *InMemoryStore) Snapshot(_ context.Context) []model.YearMusic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.YearMusic, 0, len(s.years))
	for _, ym := range s.years {
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Count returns the number of stored years.
func (s *InMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.years)
}
