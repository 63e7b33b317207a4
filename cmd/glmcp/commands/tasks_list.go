package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/glmcp/internal/app/tasklist"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/printer"
)

// TasksListCommand lists tasks.
type TasksListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	state     string
	operation string
	last      int
	format    string
}

// NewTasksListCommand returns the tasks list command.
func NewTasksListCommand(rootCmd *RootCommand, tasksCmd *kingpin.CmdClause) *TasksListCommand {
	c := &TasksListCommand{rootCmd: rootCmd}

	c.Cmd = tasksCmd.Command("list", "List tasks, oldest first.")
	c.Cmd.Flag("state", "Filter by state (pending, working, completed, failed, cancelled).").StringVar(&c.state)
	c.Cmd.Flag("operation", "Filter by operation name.").StringVar(&c.operation)
	c.Cmd.Flag("last", "Only the newest N tasks.").IntVar(&c.last)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c TasksListCommand) Name() string { return c.Cmd.FullCommand() }

func (c TasksListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var stateFilter *model.TaskState
	if c.state != "" {
		state, err := model.ParseTaskState(strings.ToLower(c.state))
		if err != nil {
			return fmt.Errorf("invalid state filter: %w", err)
		}
		stateFilter = &state
	}

	repo, err := newSQLiteRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := tasklist.NewService(tasklist.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	tasks, err := svc.Run(ctx, tasklist.Request{
		StateFilter:     stateFilter,
		OperationFilter: c.operation,
		Last:            c.last,
	})
	if err != nil {
		return fmt.Errorf("could not list tasks: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintTasks(tasks); err != nil {
		return fmt.Errorf("could not print tasks: %w", err)
	}

	return nil
}
