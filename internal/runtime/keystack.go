package runtime

import "slices"

// KeyStack mirrors the adapter's entry order as observed by the engine.
// It starts from the key of the first location the engine reads and grows from
// PUSH/REPLACE transitions; it is never read back from the adapter.
// An empty key is a valid slot: starting entries of an adapter may carry none.
type KeyStack struct {
	keys []string
}

// NewKeyStack creates a key stack with optional initial keys.
func NewKeyStack(keys ...string) *KeyStack {
	return &KeyStack{keys: slices.Clone(keys)}
}

// IndexOf returns the position of key, or -1.
func (s *KeyStack) IndexOf(key string) int {
	return slices.Index(s.keys, key)
}

// Push drops every key after index and appends key, like a browser discarding
// forward history. index -1 clears the stack.
func (s *KeyStack) Push(index int, key string) {
	if index+1 < len(s.keys) {
		s.keys = s.keys[:index+1]
	}
	s.keys = append(s.keys, key)
}

// Set overwrites the key at index. With no known index it starts the stack
// when empty and is otherwise a no-op.
func (s *KeyStack) Set(index int, key string) {
	switch {
	case index >= 0 && index < len(s.keys):
		s.keys[index] = key
	case index == -1 && len(s.keys) == 0:
		s.keys = append(s.keys, key)
	}
}

// Delta returns the move that brings the adapter from key "to" back to key "from".
func (s *KeyStack) Delta(from, to string) (int, bool) {
	prev := s.IndexOf(from)
	next := s.IndexOf(to)
	if prev == -1 || next == -1 {
		return 0, false
	}
	return prev - next, true
}

// Keys returns a copy of the stack.
func (s *KeyStack) Keys() []string {
	return slices.Clone(s.keys)
}

// Len returns the number of keys.
func (s *KeyStack) Len() int {
	return len(s.keys)
}
