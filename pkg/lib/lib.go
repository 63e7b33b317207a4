package lib

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/slok/glmcp/internal/app/runtime"
	"github.com/slok/glmcp/internal/conventions"
	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/storage"
	"github.com/slok/glmcp/internal/storage/memory"
	"github.com/slok/glmcp/internal/storage/sqlite"
)

const defaultShutdownTimeout = 30 * time.Second

// TaskStore selects where tasks are stored.
type TaskStore string

const (
	// TaskStoreSQLite stores tasks in a SQLite database shared with the glmcp CLI.
	TaskStoreSQLite TaskStore = "sqlite"
	// TaskStoreMemory keeps tasks in memory, they are lost when the client is closed.
	TaskStoreMemory TaskStore = "memory"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} talks anonymously to gitlab.com
// and stores tasks in ~/.glmcp/glmcp.db.
type Config struct {
	// GitLabURL is the GitLab instance base URL.
	// Default: https://gitlab.com.
	GitLabURL string
	// GitLabToken is the access token, empty means anonymous access.
	GitLabToken string

	// TaskStore selects the task storage.
	// Default: [TaskStoreSQLite].
	TaskStore TaskStore
	// DBPath is the SQLite database path.
	// Default: ~/.glmcp/glmcp.db.
	DBPath string

	// MaxBackground is the max number of submitted operations running at the same time.
	// Default: 16.
	MaxBackground int64
	// ShutdownTimeout is how long [Client.Close] waits for submitted operations.
	// Default: 30s.
	ShutdownTimeout time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.TaskStore == "" {
		c.TaskStore = TaskStoreSQLite
	}

	if c.TaskStore == TaskStoreSQLite && c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.DBPath(home)
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
type Client struct {
	rt              *runtime.Runtime
	logger          log.Logger
	shutdownTimeout time.Duration
	closeFn         func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	var (
		repo    storage.TaskRepository
		closeFn = func() error { return nil }
	)
	switch cfg.TaskStore {
	case TaskStoreSQLite:
		r, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: cfg.DBPath, Logger: cfg.Logger})
		if err != nil {
			return nil, mapError(fmt.Errorf("could not create repository: %w", err))
		}
		repo, closeFn = r, r.Close
	case TaskStoreMemory:
		r, err := memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, mapError(fmt.Errorf("could not create repository: %w", err))
		}
		repo = r
	default:
		return nil, newError(ErrorKindValidation, fmt.Sprintf("unsupported task store: %s", cfg.TaskStore))
	}

	rt, err := runtime.New(runtime.Config{
		GitLabURL:     cfg.GitLabURL,
		GitLabToken:   cfg.GitLabToken,
		Repository:    repo,
		MaxBackground: cfg.MaxBackground,
		Logger:        cfg.Logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, mapError(err)
	}

	return &Client{
		rt:              rt,
		logger:          cfg.Logger,
		shutdownTimeout: cfg.ShutdownTimeout,
		closeFn:         closeFn,
	}, nil
}

// Close waits for the submitted operations, up to the shutdown timeout, cancels
// the tasks still running after it and releases the task store. After Close returns, the client must not be used.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()

	if err := c.rt.Dispatcher.Wait(ctx); err != nil {
		c.logger.Warningf("Submitted operations still running on close: %s", err)
		ids := c.rt.Dispatcher.CancelRunning(context.Background())
		c.logger.Warningf("Cancelled %d unfinished tasks", len(ids))
	}

	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

func (c *Client) dispatcher() *dispatch.Dispatcher { return c.rt.Dispatcher }
