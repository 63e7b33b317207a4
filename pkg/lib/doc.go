// Package lib provides a Go SDK to run the glmcp GitLab operations in process.
//
// It wires the same runtime the MCP server uses: operation discovery,
// confirmation of destructive operations, task tracking of long-running
// operations and progress reporting. Use it when an application wants the
// operations without speaking MCP.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{
//	    GitLabURL:   "https://gitlab.example.com",
//	    GitLabToken: os.Getenv("GITLAB_TOKEN"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Invoke(ctx, "get_project", map[string]any{"project": "group/app"}, nil)
//
// # Destructive operations
//
// Operations that need confirmation fail with [ErrNotValid] until the
// confirmation fields listed by [Client.ListOperations] are set:
//
//	client.Invoke(ctx, "delete_branch", map[string]any{"project": "group/app", "branch": "old"}, &lib.InvokeOpts{
//	    Confirmation: map[string]any{"confirm": true},
//	})
//
// # Long-running operations
//
// [Client.Submit] runs a long-running operation in background and returns its
// [Task] right away. Follow it with [Client.GetTask] and [Client.GetProgress],
// stop it with [Client.CancelTask].
//
// # Error Handling
//
// Every error is an [*Error] with a kind and a retriable flag, it can also be
// inspected with [errors.Is]:
//
//   - [ErrNotFound]: the operation, task or GitLab resource does not exist.
//   - [ErrNotValid]: bad arguments, missing confirmation or a not allowed task transition.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines.
package lib
