// Package history keeps the per-session list of completed translations,
// newest first.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koconnect/koconnect/internal/domain"
)

// Filter narrows List. Empty fields match everything; a record must match
// every non-empty field.
type Filter struct {
	TargetLanguages []domain.Language `json:"targetLanguages,omitempty"`
	Styles          []domain.Style    `json:"styles,omitempty"`
}

func (f Filter) matches(r domain.HistoryRecord) bool {
	if len(f.TargetLanguages) > 0 && !containsLanguage(f.TargetLanguages, r.TargetLanguage) {
		return false
	}
	if len(f.Styles) > 0 && !containsStyle(f.Styles, r.AppliedStyle) {
		return false
	}
	return true
}

func containsLanguage(list []domain.Language, l domain.Language) bool {
	for _, x := range list {
		if x == l {
			return true
		}
	}
	return false
}

func containsStyle(list []domain.Style, s domain.Style) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Store is an in-memory, newest-first history. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []domain.HistoryRecord
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Append inserts r at the front and returns it. A missing ID or timestamp is
// filled in.
func (s *Store) Append(r domain.HistoryRecord) domain.HistoryRecord {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, domain.HistoryRecord{})
	copy(s.records[1:], s.records)
	s.records[0] = r
	return r
}

// List returns the records matching f, newest first. The result is a copy.
func (s *Store) List(f Filter) []domain.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HistoryRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Remove deletes the first record equal to r and reports whether one was
// found.
func (s *Store) Remove(r domain.HistoryRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].Equal(r) {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the record with the given ID.
func (s *Store) Find(id string) (domain.HistoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.HistoryRecord{}, false
}

// Clear removes every record.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Restore replaces the contents with records, which must be newest first.
func (s *Store) Restore(records []domain.HistoryRecord) {
	cp := append([]domain.HistoryRecord(nil), records...)
	s.mu.Lock()
	s.records = cp
	s.mu.Unlock()
}
