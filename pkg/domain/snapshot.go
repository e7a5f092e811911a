package domain

import "fmt"

// Snapshot is the serializable form of an entry list and the position inside it.
type Snapshot struct {
	Entries []Location `json:"entries"`
	Current int        `json:"current"`
}

// Validate checks that the snapshot points at an existing entry.
func (s *Snapshot) Validate() error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("%w: snapshot has no entries", ErrInvalidInput)
	}
	if s.Current < 0 || s.Current >= len(s.Entries) {
		return fmt.Errorf("%w: snapshot index %d out of range [0,%d)", ErrInvalidInput, s.Current, len(s.Entries))
	}
	return nil
}

// Clone returns a copy whose entry slice can be mutated independently.
// State values are shared.
func (s *Snapshot) Clone() *Snapshot {
	entries := make([]Location, len(s.Entries))
	copy(entries, s.Entries)
	return &Snapshot{Entries: entries, Current: s.Current}
}
