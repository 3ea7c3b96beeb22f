package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"invoicepay-server/src/db"
	"invoicepay-server/src/workflow"
)

// MemoryStore keeps sessions in the process. State is serialized so callers
// never share a *workflow.State across requests.
type MemoryStore struct {
	cache *db.Cache
}

func NewMemoryStore(maxBytes int64) (*MemoryStore, error) {
	cache, err := db.NewCache(maxBytes)
	if err != nil {
		return nil, fmt.Errorf("init session cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*workflow.State, error) {
	data, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var st workflow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, st *workflow.State, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if !s.cache.Set(id, data, ttl) {
		return fmt.Errorf("session %s dropped by cache", id)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.cache.Del(id)
	return nil
}

func (s *MemoryStore) Close() {
	s.cache.Close()
}
