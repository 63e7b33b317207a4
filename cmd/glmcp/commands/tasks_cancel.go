package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/glmcp/internal/app/taskcancel"
	"github.com/slok/glmcp/internal/printer"
	"github.com/slok/glmcp/internal/task"
)

// TasksCancelCommand cancels a task.
type TasksCancelCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id             string
	ignoreFinished bool
	format         string
}

// NewTasksCancelCommand returns the tasks cancel command.
func NewTasksCancelCommand(rootCmd *RootCommand, tasksCmd *kingpin.CmdClause) *TasksCancelCommand {
	c := &TasksCancelCommand{rootCmd: rootCmd}

	c.Cmd = tasksCmd.Command("cancel", "Cancel a pending or working task. The result of its running handler will be discarded.")
	c.Cmd.Arg("id", "Task ID.").Required().StringVar(&c.id)
	c.Cmd.Flag("ignore-finished", "Don't fail when the task is already finished.").BoolVar(&c.ignoreFinished)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c TasksCancelCommand) Name() string { return c.Cmd.FullCommand() }

func (c TasksCancelCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := newSQLiteRepository(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	mgr, err := task.NewManager(task.ManagerConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create task manager: %w", err)
	}

	svc, err := taskcancel.NewService(taskcancel.ServiceConfig{
		Canceller: mgr,
		Getter:    mgr,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	t, err := svc.Run(ctx, taskcancel.Request{TaskID: c.id, IgnoreFinished: c.ignoreFinished})
	if err != nil {
		return fmt.Errorf("could not cancel task: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintTask(*t); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	return nil
}
