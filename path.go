package history

import "github.com/aretw0/history/pkg/domain"

// Location is a single history entry.
type Location = domain.Location

// Action is the kind of transition that produced a Location.
type Action = domain.Action

const (
	Push    = domain.Push
	Replace = domain.Replace
	Pop     = domain.Pop
)

// ParsePath splits a path into pathname, search and hash.
func ParsePath(path string) Location {
	return domain.ParsePath(path)
}

// CreatePath joins a location back into a path.
func CreatePath(loc Location) string {
	return domain.CreatePath(loc)
}

// LocationsAreEqual reports whether a and b are the same entry with the same content.
func LocationsAreEqual(a, b Location) bool {
	return domain.LocationsAreEqual(a, b)
}

// StatesAreEqual compares two state values structurally.
func StatesAreEqual(a, b any) bool {
	return domain.StatesAreEqual(a, b)
}
