package history

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Runner reads navigation commands line by line and reports the resulting location.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms a report line before it is written.
// This allows for terminal styling without coupling the core package.
type ContentRenderer func(loc Location) string

// NewRunner creates a new Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// FormatLocation renders loc as "ACTION path", the default runner report.
func FormatLocation(loc Location) string {
	return fmt.Sprintf("%s %s", loc.Action, loc.Path())
}

// Run executes commands against h until EOF, "exit" or "quit".
// In headless mode the first invalid command aborts the run; otherwise it is reported and skipped.
func (r *Runner) Run(h *History) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	writer := r.Output

	if !r.Headless {
		fmt.Fprintln(writer, "--- History Runner ---")
		r.report(h.Location())
	}

	for {
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}

		text, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		eof := err == io.EOF

		line := strings.TrimSpace(text)
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case line == "exit" || line == "quit":
			if !r.Headless {
				fmt.Fprintln(writer, "Bye!")
			}
			return nil
		default:
			if err := r.exec(h, line); err != nil {
				if r.Headless {
					return err
				}
				fmt.Fprintf(writer, "error: %v\n", err)
			}
		}

		if eof {
			return nil
		}
	}
}

func (r *Runner) exec(h *History, line string) error {
	cmd, err := ParseCommand(line)
	if err != nil {
		return err
	}
	if err := h.Apply(cmd); err != nil {
		return fmt.Errorf("%s: %w", cmd.Op, err)
	}
	r.report(h.Location())
	return nil
}

func (r *Runner) report(loc Location) {
	out := FormatLocation(loc)
	if r.Renderer != nil {
		out = r.Renderer(loc)
	}
	fmt.Fprintln(r.Output, out)
}
