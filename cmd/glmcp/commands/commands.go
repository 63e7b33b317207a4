package commands

import (
	"context"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/glmcp/internal/conventions"
	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/printer"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug       bool
	NoLog       bool
	NoColor     bool
	LoggerType  string
	DBPath      string
	GitLabURL   string
	GitLabToken string
	CatalogPath string

	// Global instances.
	Version string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	app.Flag("db-path", "Path to the SQLite task database file.").Default(conventions.DBPath(homedir.HomeDir())).StringVar(&c.DBPath)
	app.Flag("gitlab-url", "GitLab instance base URL.").Envar(conventions.GitLabURLEnv).Default(conventions.DefaultGitLabURL).StringVar(&c.GitLabURL)
	app.Flag("gitlab-token", "GitLab access token, without it only public projects are reachable.").Envar(conventions.GitLabTokenEnv).StringVar(&c.GitLabToken)
	app.Flag("catalog", "Optional YAML catalog with confirmation, long-running and disabled operation overrides.").StringVar(&c.CatalogPath)

	return c
}

func addFormatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(format, printer.FormatTable, printer.FormatJSON)
}
