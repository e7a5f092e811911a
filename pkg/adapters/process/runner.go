package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/history"
	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
)

// DefaultTimeout bounds a single process execution.
const DefaultTimeout = 5 * time.Second

// Runner executes registered local processes as before hooks or confirmers.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry map[string]Config
	order    []string
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from loaded configs.
func WithRegistry(configs []Config) RunnerOption {
	return func(r *Runner) {
		for _, c := range configs {
			r.Register(c)
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger for process failures.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]Config),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list. Re-registering a name replaces it.
func (r *Runner) Register(c Config) {
	if _, exists := r.registry[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.registry[c.Name] = c
}

// Hook returns a before hook that runs the named process for each transition.
//
// The location is passed in HISTORY_* environment variables. The process answers on
// stdout: nothing continues, "allow" or "true" approves, "deny" or "false" rejects, and
// any other text becomes the confirmation message. A failing process rejects.
func (r *Runner) Hook(name string) (history.BeforeHook, error) {
	c, ok := r.registry[name]
	if !ok {
		return history.BeforeHook{}, fmt.Errorf("process hook not registered: %s", name)
	}

	return history.AsyncHook(func(loc domain.Location, done func(any)) {
		go func() {
			out, err := r.run(c, locationEnv(loc))
			if err != nil {
				r.logger.Warn("process hook failed, rejecting transition",
					"hook", c.Name,
					"path", loc.Path(),
					"err", err,
				)
				done(false)
				return
			}
			done(verdict(out))
		}()
	}), nil
}

// Hooks returns a hook per registered process, in registration order.
func (r *Runner) Hooks() []history.BeforeHook {
	hooks := make([]history.BeforeHook, 0, len(r.order))
	for _, name := range r.order {
		h, _ := r.Hook(name)
		hooks = append(hooks, h)
	}
	return hooks
}

// Confirmer returns a ports.Confirmer that runs the named process with the message in
// HISTORY_MESSAGE. Exit status 0 confirms.
func (r *Runner) Confirmer(name string) (ports.Confirmer, error) {
	c, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("process confirmer not registered: %s", name)
	}

	return ports.ConfirmFunc(func(message string, callback func(bool)) {
		go func() {
			_, err := r.run(c, []string{"HISTORY_MESSAGE=" + message})
			if err != nil {
				r.logger.Debug("process confirmer declined", "confirmer", c.Name, "err", err)
			}
			callback(err == nil)
		}()
	}), nil
}

func (r *Runner) run(c Config, env []string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Inputs travel in the environment, never as flags, to prevent flag injection.
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = r.baseDir

	cmd.Env = cmd.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func locationEnv(loc domain.Location) []string {
	state := ""
	if loc.State != nil {
		if data, err := json.Marshal(loc.State); err == nil {
			state = string(data)
		} else {
			state = fmt.Sprintf("%v", loc.State)
		}
	}

	return []string{
		"HISTORY_PATH=" + loc.Path(),
		"HISTORY_PATHNAME=" + loc.Pathname,
		"HISTORY_SEARCH=" + loc.Search,
		"HISTORY_HASH=" + loc.Hash,
		"HISTORY_ACTION=" + string(loc.Action),
		"HISTORY_KEY=" + loc.Key,
		"HISTORY_STATE=" + state,
	}
}

func verdict(out string) any {
	switch strings.ToLower(out) {
	case "":
		return nil
	case "allow", "true":
		return true
	case "deny", "false":
		return false
	}
	return out
}
