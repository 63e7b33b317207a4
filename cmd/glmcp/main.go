package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/glmcp/cmd/glmcp/commands"
	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/log"
	loglogrus "github.com/slok/glmcp/internal/log/logrus"
	"github.com/slok/glmcp/internal/model"
)

var (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("glmcp", "GitLab operations for AI agents over MCP.")
	app.DefaultEnvars()
	app.Version(Version)
	rootCmd := commands.NewRootCommand(app)

	// Task subcommands share a parent command.
	tasksCmd := commands.NewTasksCommand(app)

	cmds := map[string]commands.Command{}
	for _, cmd := range []commands.Command{
		commands.NewServeCommand(rootCmd, app),
		commands.NewOperationsCommand(rootCmd, app),
		commands.NewTasksListCommand(rootCmd, tasksCmd),
		commands.NewTasksStatusCommand(rootCmd, tasksCmd),
		commands.NewTasksCancelCommand(rootCmd, tasksCmd),
	} {
		cmds[cmd.Name()] = cmd
	}

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return model.Validation("invalid command configuration: %w", err)
	}

	cmd, ok := cmds[cmdName]
	if !ok {
		return model.Validation("unknown command %q", cmdName)
	}

	// Set standard input/output.
	rootCmd.Version = Version
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Printer output and logs share the terminal, --debug brings logs back.
	printerCommands := map[string]bool{
		"operations":   true,
		"tasks list":   true,
		"tasks status": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	rootCmd.Logger = getLogger(*rootCmd).WithValues(log.Kv{"cmd": cmdName})

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmd.Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// Stdout is reserved for the MCP stdio transport and printers.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled")

	return logger
}

// Exit codes let scripts tell a bad request from a missing task or a GitLab outage.
const (
	exitCodeInternal    = 1
	exitCodeValidation  = 2
	exitCodeNotFound    = 3
	exitCodeAccess      = 4
	exitCodeUnavailable = 5
)

func exitCode(err error) int {
	switch dispatch.Classify(err).Kind {
	case model.ErrorKindValidation:
		return exitCodeValidation
	case model.ErrorKindNotFound:
		return exitCodeNotFound
	case model.ErrorKindAuth, model.ErrorKindPermission:
		return exitCodeAccess
	case model.ErrorKindRateLimited, model.ErrorKindUpstreamUnavailable:
		return exitCodeUnavailable
	default:
		return exitCodeInternal
	}
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
