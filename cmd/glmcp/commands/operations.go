package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/printer"
)

// OperationsCommand lists the available operations.
type OperationsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	category string
	format   string
}

// NewOperationsCommand returns the operations command.
func NewOperationsCommand(rootCmd *RootCommand, app *kingpin.Application) *OperationsCommand {
	c := &OperationsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("operations", "List the available operations.")
	c.Cmd.Flag("category", "Only operations of this category (project, repository, merge_request, pipeline, issue, runtime).").StringVar(&c.category)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c OperationsCommand) Name() string { return c.Cmd.FullCommand() }

func (c OperationsCommand) Run(ctx context.Context) error {
	rt, closeRepo, err := newRuntime(ctx, c.rootCmd, runtimeConfig{TaskStore: taskStoreMemory})
	if err != nil {
		return err
	}
	defer closeRepo()

	infos, err := rt.OperationInfos(model.Category(c.category))
	if err != nil {
		return fmt.Errorf("could not list operations: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintOperations(infos); err != nil {
		return fmt.Errorf("could not print operations: %w", err)
	}

	return nil
}
