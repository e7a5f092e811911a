package domain

import "strings"

// ParsePath splits a path string into pathname, search and hash.
// Missing parts are left empty; an empty pathname becomes "/".
func ParsePath(path string) Location {
	pathname := path
	search := ""
	hash := ""

	if i := strings.IndexByte(pathname, '#'); i != -1 {
		hash = pathname[i:]
		pathname = pathname[:i]
	}

	if i := strings.IndexByte(pathname, '?'); i != -1 {
		search = pathname[i:]
		pathname = pathname[:i]
	}

	if pathname == "" {
		pathname = "/"
	}
	if search == "?" {
		search = ""
	}
	if hash == "#" {
		hash = ""
	}

	return Location{Pathname: pathname, Search: search, Hash: hash}
}

// CreatePath joins basename, pathname, search and hash into a single path string.
func CreatePath(loc Location) string {
	var b strings.Builder
	b.WriteString(loc.Basename)
	b.WriteString(loc.Pathname)
	if loc.Search != "" && loc.Search != "?" {
		if !strings.HasPrefix(loc.Search, "?") {
			b.WriteByte('?')
		}
		b.WriteString(loc.Search)
	}
	if loc.Hash != "" && loc.Hash != "#" {
		if !strings.HasPrefix(loc.Hash, "#") {
			b.WriteByte('#')
		}
		b.WriteString(loc.Hash)
	}
	return b.String()
}
