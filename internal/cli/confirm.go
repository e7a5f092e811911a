package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// PromptConfirmer asks the user to confirm veto messages.
// On a terminal it reads a single key press; otherwise it reads a line.
type PromptConfirmer struct {
	mu     sync.Mutex
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

// NewPromptConfirmer creates a confirmer reading answers from in and writing prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out, reader: bufio.NewReader(in)}
}

// Confirm prints message and reports whether the answer starts with y.
func (p *PromptConfirmer) Confirm(message string, callback func(ok bool)) {
	p.mu.Lock()
	answer, err := p.ask(message)
	p.mu.Unlock()

	if err != nil {
		fmt.Fprintf(p.out, "\n>>> confirmation aborted: %v\n", err)
		callback(false)
		return
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	callback(answer == "y" || answer == "yes")
}

func (p *PromptConfirmer) ask(message string) (string, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", message)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return "", err
		}
		defer term.Restore(int(f.Fd()), state)

		buf := make([]byte, 1)
		if _, err := f.Read(buf); err != nil {
			return "", err
		}
		fmt.Fprint(p.out, "\r\n")
		return string(buf), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return line, nil
}
