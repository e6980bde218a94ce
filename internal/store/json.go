package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"MotoTrader/internal/model"
)

// JSONStore keeps the portfolio as a single JSON document:
// {cash, positions: {sym: {quantity, averageCost}}, history: [...]}.
type JSONStore struct {
	path         string
	startingCash float64
}

func NewJSONStore(path string, startingCash float64) *JSONStore {
	return &JSONStore{path: path, startingCash: startingCash}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Load(ctx context.Context) (model.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return model.Portfolio{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewPortfolio(s.startingCash), nil
		}
		return model.Portfolio{}, fmt.Errorf("read portfolio %s: %w", s.path, err)
	}

	var p model.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Portfolio{}, fmt.Errorf("decode portfolio %s: %w", s.path, err)
	}
	if p.Positions == nil {
		p.Positions = make(map[string]model.Position)
	}
	if p.History == nil {
		p.History = []model.LedgerEntry{}
	}
	return p, nil
}

func (s *JSONStore) Save(ctx context.Context, p model.Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o644)
}
