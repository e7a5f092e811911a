package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyStack_PushTruncates(t *testing.T) {
	s := NewKeyStack("a", "b", "c")
	s.Push(0, "d")
	assert.Equal(t, []string{"a", "d"}, s.Keys())

	s.Push(-1, "e")
	assert.Equal(t, []string{"e"}, s.Keys())

	s.Push(0, "f")
	assert.Equal(t, []string{"e", "f"}, s.Keys())
}

func TestKeyStack_Set(t *testing.T) {
	s := NewKeyStack()
	s.Set(-1, "a")
	assert.Equal(t, []string{"a"}, s.Keys(), "an empty stack starts at the replaced key")

	s.Set(-1, "b")
	assert.Equal(t, []string{"a"}, s.Keys(), "unknown index leaves a non-empty stack alone")

	s.Set(0, "c")
	assert.Equal(t, []string{"c"}, s.Keys())

	s.Set(5, "d")
	assert.Equal(t, 1, s.Len())
}

func TestKeyStack_Delta(t *testing.T) {
	s := NewKeyStack("a", "b", "c")

	d, ok := s.Delta("c", "a")
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	d, ok = s.Delta("a", "b")
	assert.True(t, ok)
	assert.Equal(t, -1, d)

	_, ok = s.Delta("a", "")
	assert.False(t, ok)

	seeded := NewKeyStack("", "k1")
	d, ok = seeded.Delta("k1", "")
	assert.True(t, ok, "a keyless starting entry still has a slot")
	assert.Equal(t, 1, d)

	_, ok = s.Delta("x", "a")
	assert.False(t, ok)
}
