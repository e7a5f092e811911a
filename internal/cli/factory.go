package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/history"
	"github.com/aretw0/history/pkg/adapters/file"
	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/adapters/process"
	"github.com/aretw0/history/pkg/adapters/redis"
	"github.com/aretw0/history/pkg/config"
	"github.com/aretw0/history/pkg/observability"
	"github.com/aretw0/history/pkg/persistence/middleware"
	"github.com/aretw0/history/pkg/ports"
	"github.com/aretw0/history/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"
)

// confirmCommandName is the registry name of the confirm_command process.
const confirmCommandName = "confirm"

// Stack is everything a command needs, assembled from a normalized config.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    ports.SnapshotStore
	Locker   ports.DistributedLocker
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// HistoryOptions configure every history created by the stack.
	HistoryOptions []history.Option

	once     sync.Once
	sessions *session.Manager
	closers  []func() error
}

// StackOption overrides parts of the stack for embedding and tests.
type StackOption func(*stackSettings)

type stackSettings struct {
	stdin  io.Reader
	stdout io.Writer
}

// WithPromptIO sets the streams used by the prompt confirm policy.
func WithPromptIO(in io.Reader, out io.Writer) StackOption {
	return func(s *stackSettings) {
		s.stdin = in
		s.stdout = out
	}
}

// NewStack builds the store, locker, hooks and confirmer described by cfg.
// cfg is normalized first; invalid values fall back to defaults with a warning.
func NewStack(cfg config.Config, logger *slog.Logger, opts ...StackOption) (*Stack, error) {
	settings := stackSettings{stdin: os.Stdin, stdout: os.Stdout}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg.Normalize(logger)

	s := &Stack{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	s.Metrics = observability.NewMetrics(s.Registry)

	if err := s.buildStore(); err != nil {
		return nil, err
	}

	confirmer, err := s.buildConfirmer(settings)
	if err != nil {
		s.Close()
		return nil, err
	}

	runner := process.NewRunner(process.WithLogger(logger))
	for i, h := range cfg.Hooks {
		if h.Name == "" {
			h.Name = fmt.Sprintf("hook-%d", i+1)
		}
		runner.Register(h)
	}
	before := append(config.GuardHooks(cfg.Guards), runner.Hooks()...)

	s.HistoryOptions = []history.Option{
		history.WithLogger(logger),
		history.WithKeyLength(cfg.KeyLength),
		history.WithLifecycleHooks(observability.AuditHooks(logger)),
		history.WithLifecycleHooks(s.Metrics.Hooks()),
		history.WithBeforeHooks(before...),
	}
	if confirmer != nil {
		s.HistoryOptions = append(s.HistoryOptions, history.WithConfirmer(confirmer))
	}

	logger.Debug("stack ready",
		"backend", cfg.Store.Backend,
		"guards", len(cfg.Guards),
		"hooks", len(cfg.Hooks),
		"confirm", cfg.Confirm,
	)
	return s, nil
}

func (s *Stack) buildStore() error {
	sc := s.Config.Store

	var store ports.SnapshotStore
	switch sc.Backend {
	case config.BackendFile:
		store = file.New(sc.Dir)
	case config.BackendRedis:
		var opts []redis.Option
		if sc.TTL > 0 {
			opts = append(opts, redis.WithTTL(sc.TTL))
		}
		if sc.Prefix != "" {
			opts = append(opts, redis.WithPrefix(sc.Prefix))
		}
		rs := redis.New(sc.RedisAddr, sc.RedisPassword, sc.RedisDB, opts...)
		s.closers = append(s.closers, rs.Close)
		store = rs
		if sc.Lock {
			prefix := sc.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			s.Locker = redis.NewLocker(rs.Client(), prefix)
		}
	default:
		store = memory.NewStore()
	}

	if sc.Lock && s.Locker == nil {
		s.Logger.Warn("store.lock requires the redis backend, ignoring", "backend", sc.Backend)
	}

	var mws []middleware.Middleware
	if len(sc.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(sc.PIIPatterns))
	}
	if sc.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(sc.EncryptionKey)
		if err != nil {
			return fmt.Errorf("store.encryption_key is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("store.encryption_key must decode to 32 bytes, got %d", len(key))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	s.Store = middleware.Chain(store, mws...)
	return nil
}

func (s *Stack) buildConfirmer(settings stackSettings) (ports.Confirmer, error) {
	switch s.Config.Confirm {
	case config.ConfirmDeny:
		return ports.ConfirmFunc(func(_ string, cb func(bool)) { cb(false) }), nil
	case config.ConfirmPrompt:
		if f, ok := settings.stdin.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			s.Logger.Warn("confirm prompt needs a terminal, denying confirmations")
			return ports.ConfirmFunc(func(_ string, cb func(bool)) { cb(false) }), nil
		}
		return NewPromptConfirmer(settings.stdin, settings.stdout), nil
	case config.ConfirmProcess:
		c := *s.Config.ConfirmCommand
		c.Name = confirmCommandName
		runner := process.NewRunner(process.WithLogger(s.Logger), process.WithRegistry([]process.Config{c}))
		return runner.Confirmer(confirmCommandName)
	}
	// Allow: with no confirmer, a string veto approves.
	return nil, nil
}

// Sessions returns the session manager over the stack's store, creating it once.
func (s *Stack) Sessions() *session.Manager {
	s.once.Do(func() {
		opts := []session.Option{
			session.WithLogger(s.Logger),
			session.WithHistoryOptions(s.HistoryOptions...),
		}
		if s.Locker != nil {
			opts = append(opts, session.WithLocker(s.Locker))
		}
		s.sessions = session.NewManager(s.Store, opts...)
		observability.RegisterSessionGauge(s.Registry, s.sessions.Len)
	})
	return s.sessions
}

// NewHistory creates a standalone in-memory history with the stack's options.
func (s *Stack) NewHistory() (*history.History, error) {
	return history.NewMemory(s.HistoryOptions...)
}

// Close releases backend connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
