package domain

// Action classifies how a Location was reached.
type Action string

const (
	// Push adds a new entry after the current one, discarding forward entries.
	Push Action = "PUSH"
	// Replace overwrites the current entry.
	Replace Action = "REPLACE"
	// Pop is a move through existing entries (back/forward or an external event).
	Pop Action = "POP"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case Push, Replace, Pop:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}
