package domain

// SnapshotDiff represents the changes between two snapshots of the same session.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Current is set when the position moved.
	Current *int `json:"current,omitempty"`

	// Kept is the length of the common entry prefix. Clients truncate their
	// copy to Kept entries and then append Appended.
	Kept int `json:"kept"`

	// Removed counts old entries past the common prefix.
	Removed int `json:"removed,omitempty"`

	// Appended holds new entries past the common prefix.
	Appended []Location `json:"appended,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(sessionID string, oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: sessionID}

	if oldSnap == nil || oldSnap.Current != newSnap.Current {
		current := newSnap.Current
		diff.Current = &current
	}

	var oldEntries []Location
	if oldSnap != nil {
		oldEntries = oldSnap.Entries
	}

	kept := commonPrefix(oldEntries, newSnap.Entries)
	diff.Kept = kept
	diff.Removed = len(oldEntries) - kept
	if kept < len(newSnap.Entries) {
		diff.Appended = newSnap.Entries[kept:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// commonPrefix counts leading entries that are the same history entry with the same content.
func commonPrefix(a, b []Location) int {
	n := 0
	for n < len(a) && n < len(b) {
		if !LocationsAreEqual(a[n], b[n]) {
			break
		}
		n++
	}
	return n
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Current == nil &&
		d.Removed == 0 &&
		len(d.Appended) == 0
}
