package creds

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   any
	expiresAt time.Time
}

// MemoryStore is a process-local TTL map. Entries are dropped lazily on
// read; a server restart loses all sessions, which matches the stakes of
// the data (re-auth is one request).
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry

	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) get(key string) (any, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return entry.payload, true
}

func (s *MemoryStore) set(key string, payload any) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{payload: payload, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *MemoryStore) delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *MemoryStore) GetMoySklad(_ context.Context, sessionID string) (MoySkladCreds, error) {
	payload, ok := s.get(moySkladKey(sessionID))
	if !ok {
		return MoySkladCreds{}, ErrNotFound
	}
	return payload.(MoySkladCreds), nil
}

func (s *MemoryStore) SetMoySklad(_ context.Context, sessionID string, c MoySkladCreds) error {
	s.set(moySkladKey(sessionID), c)
	return nil
}

func (s *MemoryStore) DeleteMoySklad(_ context.Context, sessionID string) error {
	s.delete(moySkladKey(sessionID))
	return nil
}

func (s *MemoryStore) GetSmartUp(_ context.Context, sessionID string) (SmartUpCreds, error) {
	payload, ok := s.get(smartUpKey(sessionID))
	if !ok {
		return SmartUpCreds{}, ErrNotFound
	}
	return payload.(SmartUpCreds), nil
}

func (s *MemoryStore) SetSmartUp(_ context.Context, sessionID string, c SmartUpCreds) error {
	s.set(smartUpKey(sessionID), c)
	return nil
}

func (s *MemoryStore) DeleteSmartUp(_ context.Context, sessionID string) error {
	s.delete(smartUpKey(sessionID))
	return nil
}

func moySkladKey(sessionID string) string {
	return "creds:moysklad:" + sessionID
}

func smartUpKey(sessionID string) string {
	return "creds:smartup:" + sessionID
}
