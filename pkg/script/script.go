package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/history"
	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ErrExpectation is wrapped by Report.Err when a step lands somewhere unexpected.
var ErrExpectation = errors.New("unexpected location")

// Script is a named, replayable navigation sequence.
type Script struct {
	Name      string `yaml:"name"`
	Entries   []any  `yaml:"entries"`
	Current   *int   `yaml:"current,omitempty"`
	KeyLength int    `yaml:"key_length,omitempty"`
	// Confirm answers string veto messages raised by block steps: allow (default) or deny.
	Confirm string `yaml:"confirm,omitempty"`
	Steps   []Step `yaml:"steps"`
}

// Step is a command plus the path expected once it settles.
type Step struct {
	history.Command `yaml:",inline"`
	Expect          string `yaml:"expect,omitempty"`
}

// Parse decodes a script and validates its steps.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty script")
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	switch s.Confirm {
	case "", "allow", "deny":
	default:
		return nil, fmt.Errorf("unknown confirm policy %q", s.Confirm)
	}
	return &s, nil
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// StepResult records one applied step.
type StepResult struct {
	Index    int
	Command  history.Command
	Location history.Location
	Expect   string
	Err      error
}

// Passed reports whether the step applied and met its expectation.
func (r StepResult) Passed() bool {
	return r.Err == nil
}

// Report is the outcome of a script run.
type Report struct {
	Name     string
	Steps    []StepResult
	Final    history.Location
	Entries  int
	Snapshot *domain.Snapshot
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if !s.Passed() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Err joins every step failure, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Failed() {
		errs = append(errs, fmt.Errorf("step %d (%s): %w", s.Index, s.Command.Op, s.Err))
	}
	return errors.Join(errs...)
}

// Run replays s. Caller options come first so that the script's own settings win;
// hooks from both are kept. Step failures are recorded in the report, the returned
// error is reserved for a script that cannot start.
func Run(s *Script, opts ...history.Option) (*Report, error) {
	var memOpts []memory.Option
	if len(s.Entries) > 0 {
		memOpts = append(memOpts, memory.WithEntries(s.Entries...))
	}
	if s.Current != nil {
		memOpts = append(memOpts, memory.WithCurrent(*s.Current))
	}

	all := append(opts[:len(opts):len(opts)], history.WithMemoryOptions(memOpts...))
	if s.KeyLength > 0 {
		all = append(all, history.WithKeyLength(s.KeyLength))
	}
	if s.Confirm == "deny" {
		all = append(all, history.WithConfirmer(ports.ConfirmFunc(func(_ string, cb func(bool)) { cb(false) })))
	}

	h, err := history.NewMemory(all...)
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", s.Name, err)
	}

	report := &Report{Name: s.Name}
	for i, step := range s.Steps {
		res := StepResult{Index: i + 1, Command: step.Command, Expect: step.Expect}
		res.Err = h.Apply(step.Command)
		res.Location = h.Location()
		if res.Err == nil && step.Expect != "" && res.Location.Path() != step.Expect {
			res.Err = fmt.Errorf("%w: got %s, want %s", ErrExpectation, res.Location.Path(), step.Expect)
		}
		report.Steps = append(report.Steps, res)
	}

	report.Final = h.Location()
	if snap, err := h.Snapshot(); err == nil {
		report.Snapshot = snap
		report.Entries = len(snap.Entries)
	}
	return report, nil
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	name := r.Name
	if name == "" {
		name = "script"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	b.WriteString("| # | Command | Location | Result |\n")
	b.WriteString("|---|---------|----------|--------|\n")
	for _, s := range r.Steps {
		result := "ok"
		if !s.Passed() {
			result = "**" + strings.ReplaceAll(s.Err.Error(), "|", "\\|") + "**"
		}
		fmt.Fprintf(&b, "| %d | `%s` | `%s %s` | %s |\n",
			s.Index, describe(s.Command), s.Location.Action, s.Location.Path(), result)
	}
	fmt.Fprintf(&b, "\nFinal location: `%s` (%d entries)\n", r.Final.Path(), r.Entries)
	return b.String()
}

func describe(c history.Command) string {
	switch c.Op {
	case history.OpPush, history.OpReplace:
		return fmt.Sprintf("%s %s", c.Op, c.Path)
	case history.OpGo:
		return fmt.Sprintf("go %d", c.Delta)
	case history.OpBlock:
		return fmt.Sprintf("block %s", c.Message)
	}
	return string(c.Op)
}
