package commands

import (
	"github.com/alecthomas/kingpin/v2"
)

// NewTasksCommand returns the parent command of the task subcommands.
func NewTasksCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("tasks", "Inspect and cancel the tasks of long-running operations stored in the task database.")
}
