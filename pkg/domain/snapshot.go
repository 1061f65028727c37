package domain

import "encoding/json"

// Snapshot wraps a JSON rendering of an entity captured for the audit journal.
// The bytes are owned by the snapshot; accessors hand out copies.
type Snapshot struct {
	raw json.RawMessage
}

// NewSnapshot clones raw into a snapshot. A nil slice yields an empty snapshot.
func NewSnapshot(raw json.RawMessage) Snapshot {
	return Snapshot{raw: cloneRaw(raw)}
}

// SnapshotOf marshals value into a Snapshot.
func SnapshotOf[T any](value T) (Snapshot, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{raw: raw}, nil
}

// IsEmpty reports whether the snapshot holds no bytes.
func (s Snapshot) IsEmpty() bool { return len(s.raw) == 0 }

// Raw returns a copy of the JSON bytes, or nil when empty.
func (s Snapshot) Raw() json.RawMessage {
	if len(s.raw) == 0 {
		return nil
	}
	return cloneRaw(s.raw)
}

// Decode unmarshals the snapshot into out.
func (s Snapshot) Decode(out any) error {
	return json.Unmarshal(s.raw, out)
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cloned := make(json.RawMessage, len(raw))
	copy(cloned, raw)
	return cloned
}
