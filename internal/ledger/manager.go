package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MotoTrader/internal/model"
	"MotoTrader/internal/store"
)

// Manager is the only writer of the durable portfolio. Every operation
// loads the stored state, applies one pure command and saves it back while
// holding the lock.
type Manager struct {
	mu    sync.Mutex
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewManager(s store.Store, log zerolog.Logger) *Manager {
	return &Manager{store: s, log: log, now: time.Now}
}

// Portfolio returns the stored state.
func (m *Manager) Portfolio(ctx context.Context) (model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Load(ctx)
}

// Buy executes a manual buy. Rejections come back as ErrInsufficientFunds,
// ErrInvalidQuantity or ErrInvalidPrice; save failures as *PersistError.
func (m *Manager) Buy(ctx context.Context, symbol string, qty int64, price float64) (model.Portfolio, error) {
	return m.apply(ctx, "buy", func(p model.Portfolio) (model.Portfolio, bool, error) {
		next, err := Buy(p, symbol, qty, price, m.now(), "")
		return next, err == nil, err
	})
}

// Sell executes a manual sell.
func (m *Manager) Sell(ctx context.Context, symbol string, qty int64, price float64) (model.Portfolio, error) {
	return m.apply(ctx, "sell", func(p model.Portfolio) (model.Portfolio, bool, error) {
		next, err := Sell(p, symbol, qty, price, m.now(), "")
		return next, err == nil, err
	})
}

// AutoReconcile aligns one symbol to its target. Nothing is saved when no
// trade happened.
func (m *Manager) AutoReconcile(ctx context.Context, symbol string, targetExposure, equity, price float64) (model.Portfolio, model.ReconcileAction, error) {
	var action model.ReconcileAction
	p, err := m.apply(ctx, "reconcile", func(p model.Portfolio) (model.Portfolio, bool, error) {
		var next model.Portfolio
		next, action = AutoReconcile(p, symbol, targetExposure, equity, price, m.now())
		committed := action.Kind == model.ActionBuy || action.Kind == model.ActionSell
		return next, committed, nil
	})
	return p, action, err
}

func (m *Manager) apply(ctx context.Context, op string, cmd func(model.Portfolio) (model.Portfolio, bool, error)) (model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.store.Load(ctx)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("load portfolio: %w", err)
	}

	next, committed, err := cmd(cur)
	if err != nil {
		return cur, err
	}
	if !committed {
		return cur, nil
	}

	if err := m.store.Save(ctx, next); err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("failed to save portfolio")
		return cur, &PersistError{Op: op, Err: err}
	}
	return next, nil
}
