// Package memory provides an in-process deletion journal for tests and
// ephemeral deployments.
package memory

import (
	"context"
	"slices"
	"sync"

	"labqms/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DeletionJournal = (*Journal)(nil)

// Journal keeps journal entries in append order.
type Journal struct {
	mu      sync.RWMutex
	entries []domain.JournalEntry
	closed  bool
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append stores a copy of entry.
func (j *Journal) Append(ctx context.Context, entry domain.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	j.entries = append(j.entries, domain.JournalEntry{
		Log:      entry.Log,
		Snapshot: domain.NewSnapshot(entry.Snapshot.Raw()),
	})
	return nil
}

// List returns all entries in append order.
func (j *Journal) List(ctx context.Context) ([]domain.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Clone(j.entries), nil
}

// Driver identifies the backend.
func (j *Journal) Driver() string { return "memory" }

// Close marks the journal closed; later appends fail.
func (j *Journal) Close() error {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()
	return nil
}
