package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

const progressNotification = "notifications/progress"

func (s *Server) toolHandler(op model.Operation) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := s.logger.WithValues(log.Kv{"operation": op.Name})

		args := map[string]any{}
		for k, v := range req.GetArguments() {
			args[k] = v
		}

		confirmation, async, err := popControlArguments(args)
		if err != nil {
			return errorResult(dispatch.Classify(err)), nil
		}

		dreq := dispatch.Request{
			Operation:    op.Name,
			Arguments:    args,
			Confirmation: confirmation,
		}

		if async {
			sub, err := s.dispatcher.Submit(ctx, dreq)
			if err != nil {
				logger.Warningf("Background invocation rejected: %s", err)
				return errorResult(dispatch.Classify(err)), nil
			}
			logger.Debugf("Invocation %s submitted as task %s", sub.InvocationID, sub.Task.ID)
			return successResult(sub)
		}

		if token := progressToken(req); token != nil {
			dreq.OnProgress = func(r model.ProgressReport) {
				params := map[string]any{
					"progressToken": token,
					"progress":      r.Current,
				}
				if r.Total > 0 {
					params["total"] = r.Total
				}
				if r.Message != "" {
					params["message"] = r.Message
				}
				if err := s.notify(ctx, progressNotification, params); err != nil {
					logger.Debugf("Could not send progress notification: %s", err)
				}
			}
		}

		out := s.dispatcher.Invoke(ctx, dreq)
		if out.Failed() {
			logger.Debugf("Invocation %s failed: %s", out.InvocationID, out.Err)
			return errorResult(*out.Err), nil
		}
		logger.Debugf("Invocation %s succeeded", out.InvocationID)

		return successResult(out.Result)
	}
}

// popControlArguments removes the arguments consumed by the server itself.
func popControlArguments(args map[string]any) (confirmation map[string]any, async bool, err error) {
	if v, ok := args[ConfirmationArgument]; ok {
		delete(args, ConfirmationArgument)
		if v != nil {
			c, ok := v.(map[string]any)
			if !ok {
				return nil, false, model.Validation("argument %q must be an object", ConfirmationArgument)
			}
			confirmation = c
		}
	}

	if v, ok := args[AsyncArgument]; ok {
		delete(args, AsyncArgument)
		if v != nil {
			b, ok := v.(bool)
			if !ok {
				return nil, false, model.Validation("argument %q must be a boolean", AsyncArgument)
			}
			async = b
		}
	}

	return confirmation, async, nil
}

func progressToken(req mcp.CallToolRequest) mcp.ProgressToken {
	if req.Params.Meta == nil {
		return nil
	}
	return req.Params.Meta.ProgressToken
}

func successResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(model.NewStructuredError(model.ErrorKindInternal, "could not encode result: "+err.Error())), nil
	}

	res := mcp.NewToolResultText(string(data))
	res.StructuredContent = map[string]any{"result": v}
	return res, nil
}

func errorResult(e model.StructuredError) *mcp.CallToolResult {
	payload := map[string]any{"error": e}
	data, _ := json.Marshal(payload)

	res := mcp.NewToolResultError(string(data))
	res.StructuredContent = payload
	return res
}
