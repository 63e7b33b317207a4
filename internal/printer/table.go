package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/glmcp/internal/meta"
	"github.com/slok/glmcp/internal/model"
)

// TablePrinter prints runtime information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintOperations prints operations in a table format.
func (t *TablePrinter) PrintOperations(ops []meta.OperationInfo) error {
	if len(ops) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tCATEGORY\tTRAITS\tCONFIRMATION")
	for _, op := range ops {
		confirmation := "-"
		if op.RequiresConfirmation {
			confirmation = strings.Join(op.RequiredFields, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name, op.Category, traits(op), confirmation)
	}

	return nil
}

func traits(op meta.OperationInfo) string {
	ts := []string{}
	if op.IsReadOnly {
		ts = append(ts, "read-only")
	}
	if op.IsDestructive {
		ts = append(ts, "destructive")
	}
	if op.IsIdempotent {
		ts = append(ts, "idempotent")
	}
	if op.LongRunning {
		ts = append(ts, "long-running")
	}
	if len(ts) == 0 {
		return "-"
	}
	return strings.Join(ts, ",")
}

// PrintTasks prints tasks in a table format.
func (t *TablePrinter) PrintTasks(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tOPERATION\tSTATE\tCREATED\tUPDATED")
	for _, tk := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tk.ID, tk.OperationName, tk.State, TimeAgo(tk.CreatedAt), TimeAgo(tk.UpdatedAt))
	}

	return nil
}

// PrintTask prints detailed task information.
func (t *TablePrinter) PrintTask(tk model.Task) error {
	fmt.Fprintf(t.writer, "ID:          %s\n", tk.ID)
	fmt.Fprintf(t.writer, "Operation:   %s\n", tk.OperationName)
	fmt.Fprintf(t.writer, "Invocation:  %s\n", tk.InvocationID)
	fmt.Fprintf(t.writer, "State:       %s\n", tk.State)
	fmt.Fprintf(t.writer, "Created:     %s\n", FormatTimestamp(tk.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:     %s\n", FormatTimestamp(tk.UpdatedAt))

	if tk.Error != nil {
		fmt.Fprintf(t.writer, "Error:       %s (retriable: %t)\n", tk.Error, tk.Error.Retriable)
	}

	if tk.Result != nil {
		data, err := json.Marshal(tk.Result)
		if err != nil {
			return fmt.Errorf("could not encode task result: %w", err)
		}
		fmt.Fprintf(t.writer, "Result:      %s\n", data)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
