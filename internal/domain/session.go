package domain

import (
	"errors"
	"fmt"
	"time"
)

// OperationKind identifies which search path produced a session, so a
// show-more request re-runs the same path.
type OperationKind string

// Search paths.
const (
	KindKeyword OperationKind = "keyword"
	KindRange   OperationKind = "range"
	KindVector  OperationKind = "vector"
	KindHybrid  OperationKind = "hybrid"
)

// ValidKinds returns every operation kind.
func ValidKinds() []OperationKind {
	return []OperationKind{KindKeyword, KindRange, KindVector, KindHybrid}
}

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	for _, v := range ValidKinds() {
		if k == v {
			return true
		}
	}
	return false
}

// PaginationSession is the per-conversation record of the search in flight.
// A new search always overwrites it.
type PaginationSession struct {
	ConversationID string        `json:"conversation_id"`
	Kind           OperationKind `json:"kind"`
	Keyword        string        `json:"keyword"`
	Filters        SearchFilters `json:"filters"`
	TotalFound     int           `json:"total_found"`
	SentCount      int           `json:"sent_count"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Validate checks the bookkeeping invariant 0 <= sent_count <= total_found.
func (s *PaginationSession) Validate() error {
	if s.ConversationID == "" {
		return errors.New("conversation id is required")
	}
	if s.Kind != "" && !s.Kind.Valid() {
		return fmt.Errorf("unknown search kind %q", s.Kind)
	}
	if s.TotalFound < 0 {
		return errors.New("total_found must not be negative")
	}
	if s.SentCount < 0 || s.SentCount > s.TotalFound {
		return fmt.Errorf("sent_count %d outside [0, %d]", s.SentCount, s.TotalFound)
	}
	return nil
}

// Remaining returns how many results have not been shown yet.
func (s *PaginationSession) Remaining() int {
	if r := s.TotalFound - s.SentCount; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether every result has been shown.
func (s *PaginationSession) Exhausted() bool {
	return s.SentCount >= s.TotalFound
}

// IsStale reports whether the session is older than staleAfter at now.
// A zero staleAfter disables staleness.
func (s *PaginationSession) IsStale(now time.Time, staleAfter time.Duration) bool {
	if staleAfter <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > staleAfter
}
