package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateStore persists a pool's inventory between runs.
type StateStore interface {
	Load(ctx context.Context) (*big.Int, bool, error)
	Save(ctx context.Context, inventory *big.Int) error
}

// FileStateStore stores inventory in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	Inventory string `json:"inventory"`
	UpdatedAt string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (*big.Int, bool, error) {
	if s == nil || s.Path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("parse state: %w", err)
	}
	inv, ok := new(big.Int).SetString(rec.Inventory, 10)
	if !ok {
		return nil, false, fmt.Errorf("parse state inventory %q", rec.Inventory)
	}
	return inv, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, inventory *big.Int) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	rec := stateRecord{
		Inventory: inventory.String(),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// MemoryStateStore keeps inventory in process. The zero value is empty.
type MemoryStateStore struct {
	mu        sync.Mutex
	inventory *big.Int
	saves     int
}

func (s *MemoryStateStore) Load(ctx context.Context) (*big.Int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inventory == nil {
		return nil, false, nil
	}
	return new(big.Int).Set(s.inventory), true, nil
}

func (s *MemoryStateStore) Save(ctx context.Context, inventory *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventory = new(big.Int).Set(inventory)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryStateStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
