// Package gateway assembles the filesystem gateway from its configuration
// and exposes the single entry point transports call: Invoke.
package gateway

import (
	"context"
	"fmt"
	"time"

	"fsgate/internal/access"
	"fsgate/internal/config"
	"fsgate/internal/dispatch"
	"fsgate/internal/lock"
	"fsgate/internal/logging"
	"fsgate/internal/monitoring"
	"fsgate/internal/operations"
	"fsgate/internal/storage"
	"fsgate/internal/toolerr"
	"fsgate/pkg/fileops"

	"github.com/google/uuid"
)

// Option customizes a Gateway.
type Option func(*options)

type options struct {
	logger      *logging.AppLogger
	store       storage.Storage
	metrics     *monitoring.Metrics
	lockDir     string
	lockTimeout time.Duration
}

// WithLogger sets the logger. The default is logging.GetDefault().
func WithLogger(logger *logging.AppLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStorage replaces the local disk storage provider.
func WithStorage(store storage.Storage) Option {
	return func(o *options) { o.store = store }
}

// WithMetrics shares a metrics collector, e.g. with the HTTP transport.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLockDir overrides the configured lock directory.
func WithLockDir(dir string) Option {
	return func(o *options) { o.lockDir = dir }
}

// WithLockTimeout bounds how long a writer waits for another writer of the
// same path.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// Gateway is safe for concurrent use. Everything it holds is fixed at
// construction.
type Gateway struct {
	authorizer *access.Authorizer
	dispatcher *dispatch.Dispatcher
	ops        *operations.Operations
	metrics    *monitoring.Metrics
	logger     *logging.AppLogger
}

// New validates cfg and wires the authorizer, storage, write locks,
// operations and dispatcher.
func New(cfg config.Config, opts ...Option) (*Gateway, error) {
	o := options{lockDir: cfg.LockDir}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.GetDefault()
	}
	if o.store == nil {
		o.store = storage.NewLocal()
	}
	if o.metrics == nil {
		o.metrics = monitoring.NewMetrics()
	}
	if o.lockDir == "" {
		o.lockDir = config.DefaultLockDir()
	}

	if len(cfg.AllowedDirectories) == 0 {
		return nil, fmt.Errorf("at least one allowed directory is required")
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive, got %d", cfg.MaxFileSize)
	}

	authorizer, err := access.New(cfg.AllowedDirectories, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure allowed directories: %w", err)
	}

	locks, err := lock.NewManager(o.lockDir, o.lockTimeout)
	if err != nil {
		return nil, err
	}
	if canonical, err := fileops.Canonicalize(locks.Dir(), ""); err == nil && fileops.IsWithinAny(canonical, authorizer.Roots()) {
		o.logger.Warn("Lock directory is inside an allowed directory; lock files will be visible to clients", "lock_dir", locks.Dir())
	}

	ops, err := operations.New(authorizer, o.store, operations.Options{
		MaxFileSize: cfg.MaxFileSize,
		Locker:      locks,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("Gateway configured",
		"roots", authorizer.Roots(),
		"max_file_size", cfg.MaxFileSize,
		"lock_dir", locks.Dir())

	return &Gateway{
		authorizer: authorizer,
		dispatcher: dispatch.New(ops, o.logger),
		ops:        ops,
		metrics:    o.metrics,
		logger:     o.logger,
	}, nil
}

// Invoke runs one tool call. Every error it returns is a *toolerr.Error.
func (g *Gateway) Invoke(ctx context.Context, name string, args map[string]any) (*dispatch.Result, error) {
	label := "unknown"
	if tool, ok := g.dispatcher.Lookup(name); ok {
		label = tool.Name
	}
	log := g.logger.With("call", uuid.NewString(), "tool", name, "path", args["path"])
	timer := monitoring.NewTimer(g.metrics, label)

	log.Debug("Tool call started")
	res, err := g.dispatcher.Dispatch(ctx, name, args)
	if err != nil {
		kind := toolerr.KindOf(err)
		duration := timer.Stop(kind.String())
		if kind == toolerr.AccessDenied {
			g.metrics.RecordDenial(label)
			log.Warn("Tool call denied", "error", err, "duration", duration)
		} else {
			log.Info("Tool call failed", "kind", kind, "error", err, "duration", duration)
		}
		return nil, err
	}

	duration := timer.Stop(monitoring.OutcomeOK)
	g.account(res)
	log.Debug("Tool call finished", "duration", duration)
	return res, nil
}

func (g *Gateway) account(res *dispatch.Result) {
	switch data := res.Data.(type) {
	case *operations.FileContent:
		g.metrics.AddBytesRead(int(data.Size))
	case *operations.Acknowledgement:
		if data.Operation == operations.OpWrite {
			g.metrics.AddBytesWritten(data.Bytes)
		}
	}
}

// Tools returns the tool table.
func (g *Gateway) Tools() []dispatch.Tool { return g.dispatcher.Tools() }

// Roots returns the canonical allowed directories.
func (g *Gateway) Roots() []string { return g.authorizer.Roots() }

// MaxFileSize is the read size limit in bytes.
func (g *Gateway) MaxFileSize() int64 { return g.ops.MaxFileSize() }

// Metrics is the collector calls are recorded on.
func (g *Gateway) Metrics() *monitoring.Metrics { return g.metrics }
