package domain

import "context"

// JournalEntry is one row appended to the deletion audit journal. Snapshot
// carries the instrument as it was at the moment of deletion.
type JournalEntry struct {
	Log      DeletionLog
	Snapshot Snapshot
}

// DeletionJournal is a write-only audit sink for archive and delete events.
// State is never reloaded from it; reads exist for audit tooling and tests.
type DeletionJournal interface {
	Append(ctx context.Context, entry JournalEntry) error
	List(ctx context.Context) ([]JournalEntry, error)
	Driver() string
	Close() error
}
