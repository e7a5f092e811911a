package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []bool
	}{
		{"yes", "y\n", []bool{true}},
		{"long yes", "Yes\n", []bool{true}},
		{"no", "n\n", []bool{false}},
		{"empty defaults to no", "\n", []bool{false}},
		{"sequence", "y\nno\nyes", []bool{true, false, true}},
		{"eof aborts", "", []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPromptConfirmer(strings.NewReader(tt.input), &out)

			for _, want := range tt.want {
				var got bool
				p.Confirm("Leave page?", func(ok bool) { got = ok })
				assert.Equal(t, want, got)
			}
			assert.Contains(t, out.String(), "Leave page? [y/N] ")
		})
	}
}

func TestPromptConfirmer_EOFReportsAbort(t *testing.T) {
	var out bytes.Buffer
	p := NewPromptConfirmer(strings.NewReader(""), &out)
	p.Confirm("Leave?", func(bool) {})
	assert.Contains(t, out.String(), "confirmation aborted")
}
