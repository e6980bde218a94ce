package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"MotoTrader/internal/model"
)

// AttributionFile persists the adaptive weighter's state between cycles.
type AttributionFile struct {
	path string
}

func NewAttributionFile(path string) *AttributionFile {
	return &AttributionFile{path: path}
}

// Load returns an empty state when the file does not exist yet.
func (f *AttributionFile) Load() (model.AttributionState, error) {
	state := model.AttributionState{
		History: make(map[model.FactorKey][]float64),
		Pending: make(map[string]model.PendingAttribution),
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("read attribution %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decode attribution %s: %w", f.path, err)
	}
	if state.History == nil {
		state.History = make(map[model.FactorKey][]float64)
	}
	if state.Pending == nil {
		state.Pending = make(map[string]model.PendingAttribution)
	}
	return state, nil
}

func (f *AttributionFile) Save(state model.AttributionState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode attribution: %w", err)
	}
	return writeFileAtomic(f.path, data, 0o644)
}
