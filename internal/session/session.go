// Package session stores the per-conversation pagination record. Every
// backend is last-writer-wins: Save replaces whatever was stored for the id.
package session

import (
	"context"
	"sync"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

// Store persists PaginationSessions keyed by conversation id.
type Store interface {
	// Get returns the session or apperrors.ErrNotFound.
	Get(ctx context.Context, conversationID string) (*domain.PaginationSession, error)

	// Save overwrites the session for s.ConversationID.
	Save(ctx context.Context, s *domain.PaginationSession) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, conversationID string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.PaginationSession
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.PaginationSession)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, conversationID string) (*domain.PaginationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[conversationID]
	if !ok {
		return nil, apperrors.NotFound("search session", conversationID)
	}
	s.Filters = cloneFilters(s.Filters)
	return &s, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s *domain.PaginationSession) error {
	cp := *s
	cp.Filters = cloneFilters(s.Filters)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ConversationID] = cp
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conversationID)
	return nil
}

// cloneFilters copies everything f references so stored sessions share no
// memory with callers.
func cloneFilters(f domain.SearchFilters) domain.SearchFilters {
	f.Colors = append([]string(nil), f.Colors...)
	if f.MinPrice != nil {
		f.MinPrice = domain.Float64(*f.MinPrice)
	}
	if f.MaxPrice != nil {
		f.MaxPrice = domain.Float64(*f.MaxPrice)
	}
	return f
}
