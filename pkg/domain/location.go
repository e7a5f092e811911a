package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Location is one addressable point in navigation history.
type Location struct {
	// Pathname always starts with "/".
	Pathname string `json:"pathname" yaml:"pathname"`

	// Search is empty or starts with "?".
	Search string `json:"search,omitempty" yaml:"search,omitempty"`

	// Hash is empty or starts with "#".
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`

	// State is app data attached to this entry. It must stay JSON-like:
	// no functions, channels or time.Time values.
	State any `json:"state,omitempty" yaml:"state,omitempty"`

	// Key identifies the history entry. Empty means the entry has no key yet.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Action tags how this Location came to be.
	Action Action `json:"action,omitempty" yaml:"action,omitempty"`

	// Basename and Query are filled by collaborating adapters, not by the engine.
	Basename string     `json:"basename,omitempty" yaml:"basename,omitempty"`
	Query    url.Values `json:"query,omitempty" yaml:"query,omitempty"`
}

// Path returns the full path of the location (basename, pathname, search and hash).
func (l Location) Path() string {
	return CreatePath(l)
}

// CreateLocation builds a Location from a path string, a Location or a *Location.
// An empty action defaults to Pop. State is copied verbatim.
func CreateLocation(input any, action Action, key string) (Location, error) {
	var loc Location

	switch v := input.(type) {
	case nil:
	case string:
		loc = ParsePath(v)
	case Location:
		loc = v
	case *Location:
		if v != nil {
			loc = *v
		}
	default:
		return Location{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidInput, input)
	}

	if action == "" {
		action = Pop
	}
	if !action.Valid() {
		return Location{}, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	if loc.Pathname == "" {
		loc.Pathname = "/"
	} else if !strings.HasPrefix(loc.Pathname, "/") {
		loc.Pathname = "/" + loc.Pathname
	}
	if loc.Search != "" && !strings.HasPrefix(loc.Search, "?") {
		loc.Search = "?" + loc.Search
	}
	if loc.Hash != "" && !strings.HasPrefix(loc.Hash, "#") {
		loc.Hash = "#" + loc.Hash
	}

	loc.Action = action
	loc.Key = key
	return loc, nil
}

// LocationsAreEqual reports whether a and b are the same history entry with the same content.
// Action is not compared: a PUSH and a POP to the same path, state and key are equal.
// It panics like StatesAreEqual when either state holds a function or a time.Time.
func LocationsAreEqual(a, b Location) bool {
	return a.Key == b.Key &&
		a.Pathname == b.Pathname &&
		a.Search == b.Search &&
		a.Hash == b.Hash &&
		StatesAreEqual(a.State, b.State)
}
