package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Op names a navigation command.
type Op string

const (
	OpPush     Op = "push"
	OpReplace  Op = "replace"
	OpGo       Op = "go"
	OpBack     Op = "back"
	OpForward  Op = "forward"
	OpBlock    Op = "block"
	OpUnblock  Op = "unblock"
	OpLocation Op = "location"
)

// Command is one navigation step, as written in scripts or typed in the runner.
type Command struct {
	Op      Op     `json:"op" yaml:"op"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	State   any    `json:"state,omitempty" yaml:"state,omitempty"`
	Delta   int    `json:"delta,omitempty" yaml:"delta,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Validate checks that the command carries the arguments its op needs.
func (c Command) Validate() error {
	switch c.Op {
	case OpPush, OpReplace:
		if c.Path == "" {
			return fmt.Errorf("%s requires a path", c.Op)
		}
	case OpBlock:
		if c.Message == "" {
			return fmt.Errorf("block requires a message")
		}
	case OpGo, OpBack, OpForward, OpUnblock, OpLocation:
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
	return nil
}

// ParseCommand reads a single runner line such as "push /a?x=1", "go -2" or "block unsaved".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	cmd := Command{Op: Op(strings.ToLower(fields[0]))}
	args := fields[1:]

	switch cmd.Op {
	case OpPush, OpReplace:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: %s <path>", cmd.Op)
		}
		cmd.Path = args[0]
	case OpGo:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: go <delta>")
		}
		delta, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("invalid delta %q: %w", args[0], err)
		}
		cmd.Delta = delta
	case OpBlock:
		cmd.Message = strings.Join(args, " ")
	}

	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Apply runs cmd against h.
func (h *History) Apply(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	switch cmd.Op {
	case OpPush, OpReplace:
		loc := ParsePath(cmd.Path)
		loc.State = cmd.State
		if cmd.Op == OpPush {
			return h.Push(loc)
		}
		return h.Replace(loc)
	case OpGo:
		h.Go(cmd.Delta)
	case OpBack:
		h.GoBack()
	case OpForward:
		h.GoForward()
	case OpBlock:
		h.Block(cmd.Message)
	case OpUnblock:
		h.Unblock()
	}
	return nil
}
