// Package session gives every caller session its own history store and can
// persist those stores between Lambda invocations.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/history"
	"github.com/koconnect/koconnect/internal/logger"
)

// DefaultID is used when a request carries no session id.
const DefaultID = "default"

// Snapshotter persists session histories record by record, so writers on
// different instances merge instead of overwriting each other.
type Snapshotter interface {
	Load(ctx context.Context, id string) ([]domain.HistoryRecord, bool, error)
	Push(ctx context.Context, id string, record domain.HistoryRecord) error
	Remove(ctx context.Context, id, recordID string) error
	Delete(ctx context.Context, id string) error
}

// Registry maps session ids to stores. Without a Snapshotter stores live in
// memory only. With one, the snapshot is the source of truth: every Store
// call reloads it and every mutation is written through.
type Registry struct {
	mu          sync.Mutex
	stores      map[string]*history.Store
	snapshotter Snapshotter
	log         logger.Logger
}

// NewRegistry creates a registry. snapshotter may be nil.
func NewRegistry(snapshotter Snapshotter, log logger.Logger) *Registry {
	return &Registry{
		stores:      make(map[string]*history.Store),
		snapshotter: snapshotter,
		log:         logger.OrNop(log).With(map[string]interface{}{"component": "session"}),
	}
}

func normalizeID(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultID
	}
	return id
}

// Store returns the session's store, refreshed from the snapshot when one is
// configured. A snapshot that cannot be loaded is logged and the in-memory
// copy is served as is.
func (r *Registry) Store(ctx context.Context, id string) *history.Store {
	id = normalizeID(id)

	r.mu.Lock()
	s, ok := r.stores[id]
	if !ok {
		s = history.NewStore()
		r.stores[id] = s
	}
	r.mu.Unlock()

	if r.snapshotter == nil {
		return s
	}
	records, found, err := r.snapshotter.Load(ctx, id)
	switch {
	case err != nil:
		r.log.Warn("session snapshot load failed", map[string]interface{}{"session": id, "error": err.Error()})
	case found:
		s.Restore(records)
	default:
		s.Clear()
	}
	return s
}

// Appended records that record was added to the session's store.
func (r *Registry) Appended(ctx context.Context, id string, record domain.HistoryRecord) error {
	if r.snapshotter == nil {
		return nil
	}
	return r.snapshotter.Push(ctx, normalizeID(id), record)
}

// Removed records that the record with recordID left the session's store.
func (r *Registry) Removed(ctx context.Context, id, recordID string) error {
	if r.snapshotter == nil {
		return nil
	}
	return r.snapshotter.Remove(ctx, normalizeID(id), recordID)
}

// Cleared records that the session's store was emptied.
func (r *Registry) Cleared(ctx context.Context, id string) error {
	if r.snapshotter == nil {
		return nil
	}
	return r.snapshotter.Delete(ctx, normalizeID(id))
}
