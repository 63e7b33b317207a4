package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/glmcp/internal/meta"
	"github.com/slok/glmcp/internal/model"
)

// JSONPrinter prints runtime information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskListItem represents a task in the list output (subset of fields).
type taskListItem struct {
	ID            string          `json:"id"`
	OperationName string          `json:"operation_name"`
	State         model.TaskState `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintOperations prints operations in JSON format.
func (j *JSONPrinter) PrintOperations(ops []meta.OperationInfo) error {
	if ops == nil {
		ops = []meta.OperationInfo{}
	}
	return j.encode(ops)
}

// PrintTasks prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintTasks(tasks []model.Task) error {
	items := make([]taskListItem, len(tasks))
	for i, t := range tasks {
		items[i] = taskListItem{
			ID:            t.ID,
			OperationName: t.OperationName,
			State:         t.State,
			CreatedAt:     t.CreatedAt.UTC(),
			UpdatedAt:     t.UpdatedAt.UTC(),
		}
	}
	return j.encode(items)
}

// PrintTask prints the full task in JSON format.
func (j *JSONPrinter) PrintTask(t model.Task) error {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return j.encode(t)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
