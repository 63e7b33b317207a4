package printer

import (
	"io"

	"github.com/slok/glmcp/internal/meta"
	"github.com/slok/glmcp/internal/model"
)

// Printer knows how to print runtime information in different formats.
type Printer interface {
	PrintOperations(ops []meta.OperationInfo) error
	PrintTasks(tasks []model.Task) error
	PrintTask(t model.Task) error
	PrintMessage(msg string) error
}

// New returns the printer for a format, table by default.
func New(format string, w io.Writer) Printer {
	if format == FormatJSON {
		return NewJSONPrinter(w)
	}
	return NewTablePrinter(w)
}

const (
	// FormatTable is the human readable table format.
	FormatTable = "table"
	// FormatJSON is the JSON format.
	FormatJSON = "json"
)
