package store

import (
	"context"
	"errors"
	"sync"

	"MotoTrader/internal/model"
)

// Store is the durable home of one account's portfolio.
type Store interface {
	// Load returns the stored portfolio, or a fresh one holding only the
	// starting cash when nothing has been saved yet.
	Load(ctx context.Context) (model.Portfolio, error)
	// Save replaces the stored portfolio atomically.
	Save(ctx context.Context, p model.Portfolio) error
}

// ErrHistoryRewritten is returned when a save would drop ledger entries
// that were already persisted.
var ErrHistoryRewritten = errors.New("ledger history is append-only")

// MemoryStore keeps the portfolio in process. It backs dry runs and tests.
type MemoryStore struct {
	mu           sync.Mutex
	startingCash float64
	saved        *model.Portfolio
	// FailSave, when set, is returned by Save without storing anything.
	FailSave error
}

func NewMemoryStore(startingCash float64) *MemoryStore {
	return &MemoryStore{startingCash: startingCash}
}

func (m *MemoryStore) Load(_ context.Context) (model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return model.NewPortfolio(m.startingCash), nil
	}
	return m.saved.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, p model.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	if m.saved != nil && len(p.History) < len(m.saved.History) {
		return ErrHistoryRewritten
	}
	c := p.Clone()
	m.saved = &c
	return nil
}
