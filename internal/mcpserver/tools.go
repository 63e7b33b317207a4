package mcpserver

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/slok/glmcp/internal/model"
)

func newTool(op model.Operation, req model.ElicitationRequirement, hasReq bool) (mcp.Tool, error) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(toolDescription(op, req, hasReq)),
		mcp.WithReadOnlyHintAnnotation(op.ReadOnly),
		mcp.WithDestructiveHintAnnotation(op.Destructive),
		mcp.WithIdempotentHintAnnotation(op.Idempotent),
		mcp.WithOpenWorldHintAnnotation(op.Category != model.CategoryRuntime),
	}
	if op.Title != "" {
		opts = append(opts, mcp.WithTitleAnnotation(op.Title))
	}

	for _, p := range op.Parameters {
		if p.Name == ConfirmationArgument || p.Name == AsyncArgument {
			return mcp.Tool{}, fmt.Errorf("parameter %q is reserved: %w", p.Name, model.ErrNotValid)
		}

		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}

		switch p.Type {
		case model.ParameterTypeString:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		case model.ParameterTypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case model.ParameterTypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		case model.ParameterTypeObject:
			opts = append(opts, mcp.WithObject(p.Name, popts...))
		default:
			return mcp.Tool{}, fmt.Errorf("parameter %q has unknown type %q: %w", p.Name, p.Type, model.ErrNotValid)
		}
	}

	// Not required on the schema so a missing confirmation reaches the gate
	// and is answered with the prompt.
	if hasReq {
		props := map[string]any{}
		for _, f := range req.RequiredFields {
			props[f] = map[string]any{"type": "boolean"}
		}
		opts = append(opts, mcp.WithObject(ConfirmationArgument,
			mcp.Description(fmt.Sprintf("%s Set to true: %s.", req.Prompt, strings.Join(req.RequiredFields, ", "))),
			mcp.Properties(props),
		))
	}

	if op.LongRunning {
		opts = append(opts, mcp.WithBoolean(AsyncArgument,
			mcp.Description("Run in background and return the task right away, follow it with get_task and get_progress."),
		))
	}

	return mcp.NewTool(op.Name, opts...), nil
}

func toolDescription(op model.Operation, req model.ElicitationRequirement, hasReq bool) string {
	var b strings.Builder
	b.WriteString(op.Description)
	if op.LongRunning {
		b.WriteString("\n\nLong-running: tracked as a task with progress.")
	}
	if hasReq {
		fmt.Fprintf(&b, "\n\nRequires confirmation: %s", req.Prompt)
	}
	return b.String()
}
