package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/glmcp/internal/mcpserver"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

const serverInstructions = `GitLab operations exposed as tools.
Destructive tools need a "confirmation" object with the listed fields set to true.
Long-running tools accept "async": true to run as a background task, follow it with get_task, get_progress and cancel_task.`

// ServeCommand serves the operations over MCP.
type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	transport         string
	listenAddr        string
	taskStore         string
	maxBackground     int64
	progressRetention int
	shutdownTimeout   time.Duration
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve the GitLab operations as MCP tools.")
	c.Cmd.Flag("transport", "MCP transport (stdio, http).").Default(transportStdio).EnumVar(&c.transport, transportStdio, transportHTTP)
	c.Cmd.Flag("listen-address", "Listen address for the http transport.").Default(":8080").StringVar(&c.listenAddr)
	c.Cmd.Flag("task-store", "Where tasks are stored (sqlite, memory).").Default(taskStoreSQLite).EnumVar(&c.taskStore, taskStoreSQLite, taskStoreMemory)
	c.Cmd.Flag("max-background-tasks", "Max background invocations running at the same time.").Default("16").Int64Var(&c.maxBackground)
	c.Cmd.Flag("progress-retention", "Number of invocations whose progress is kept.").Default("1024").IntVar(&c.progressRetention)
	c.Cmd.Flag("shutdown-timeout", "Max time to wait for background invocations on shutdown.").Default("30s").DurationVar(&c.shutdownTimeout)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	rt, closeRepo, err := newRuntime(ctx, c.rootCmd, runtimeConfig{
		TaskStore:         c.taskStore,
		MaxBackground:     c.maxBackground,
		ProgressRetention: c.progressRetention,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Warningf("Could not close task store: %s", err)
		}
	}()

	srv, err := mcpserver.NewServer(mcpserver.ServerConfig{
		Name:         "glmcp",
		Version:      c.rootCmd.Version,
		Instructions: serverInstructions,
		Operations:   rt.Registry,
		Requirements: rt.Gate,
		Dispatcher:   rt.Dispatcher,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create mcp server: %w", err)
	}

	switch c.transport {
	case transportHTTP:
		err = c.serveHTTP(ctx, srv.HTTPHandler())
	default:
		logger.Infof("Serving MCP over stdio")
		err = srv.ServeStdio(ctx, c.rootCmd.Stdin, c.rootCmd.Stdout)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	// Let background invocations finish so their tasks don't stay working.
	waitCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()
	if werr := rt.Dispatcher.Wait(waitCtx); werr != nil {
		logger.Warningf("Background invocations still running on shutdown: %s", werr)
		ids := rt.Dispatcher.CancelRunning(context.Background())
		logger.Warningf("Cancelled %d unfinished tasks", len(ids))
	}

	return err
}

func (c ServeCommand) serveHTTP(ctx context.Context, h http.Handler) error {
	logger := c.rootCmd.Logger
	server := &http.Server{
		Addr:              c.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group

	// HTTP server.
	{
		g.Add(
			func() error {
				logger.Infof("Serving MCP over http on %s", c.listenAddr)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			func(_ error) {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Warningf("Could not shutdown http server: %s", err)
				}
			},
		)
	}

	// Context cancellation (from parent signal handling).
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				<-ctx.Done()
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}
