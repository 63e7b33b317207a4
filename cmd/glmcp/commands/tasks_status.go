package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/glmcp/internal/app/taskstatus"
	"github.com/slok/glmcp/internal/printer"
)

// TasksStatusCommand shows a task.
type TasksStatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id     string
	format string
}

// NewTasksStatusCommand returns the tasks status command.
func NewTasksStatusCommand(rootCmd *RootCommand, tasksCmd *kingpin.CmdClause) *TasksStatusCommand {
	c := &TasksStatusCommand{rootCmd: rootCmd}

	c.Cmd = tasksCmd.Command("status", "Show a task with its result or error.")
	c.Cmd.Arg("id", "Task ID or the ID of the invocation that created it.").Required().StringVar(&c.id)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c TasksStatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c TasksStatusCommand) Run(ctx context.Context) error {
	repo, err := newSQLiteRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := taskstatus.NewService(taskstatus.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	t, err := svc.Run(ctx, taskstatus.Request{ID: c.id})
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintTask(*t); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	return nil
}
