// Package mcpserver exposes the registered operations as MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"iter"
	stdlog "log"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

const (
	// ConfirmationArgument is the tool argument carrying the confirmation payload.
	ConfirmationArgument = "confirmation"
	// AsyncArgument is the tool argument that runs a long-running operation in background.
	AsyncArgument = "async"
)

// OperationLister lists the registered operations.
type OperationLister interface {
	List() iter.Seq[model.Operation]
}

// RequirementLookup returns the confirmation requirement of an operation.
type RequirementLookup interface {
	Requirement(operation string) (model.ElicitationRequirement, bool)
}

// Dispatcher runs operation invocations.
type Dispatcher interface {
	Invoke(ctx context.Context, req dispatch.Request) dispatch.Outcome
	Submit(ctx context.Context, req dispatch.Request) (*dispatch.Submission, error)
}

// Notifier sends a notification to the client of the current request.
type Notifier func(ctx context.Context, method string, params map[string]any) error

// ServerConfig is the configuration of the MCP server.
type ServerConfig struct {
	Name         string
	Version      string
	Instructions string
	Operations   OperationLister
	Requirements RequirementLookup
	Dispatcher   Dispatcher
	// Notify is used to send progress notifications, by default the MCP session
	// of the request is used.
	Notify Notifier
	Logger log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.Name == "" {
		c.Name = "glmcp"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Operations == nil {
		return fmt.Errorf("operation lister is required")
	}
	if c.Requirements == nil {
		return fmt.Errorf("requirement lookup is required")
	}
	if c.Dispatcher == nil {
		return fmt.Errorf("dispatcher is required")
	}
	if c.Notify == nil {
		c.Notify = notifyClient
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "mcpserver.Server"})
	return nil
}

// Server is an MCP server backed by the operation dispatcher.
type Server struct {
	mcp        *server.MCPServer
	dispatcher Dispatcher
	notify     Notifier
	logger     log.Logger
}

// NewServer returns a new MCP server with one tool per registered operation.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
	}
	if cfg.Instructions != "" {
		opts = append(opts, server.WithInstructions(cfg.Instructions))
	}

	s := &Server{
		mcp:        server.NewMCPServer(cfg.Name, cfg.Version, opts...),
		dispatcher: cfg.Dispatcher,
		notify:     cfg.Notify,
		logger:     cfg.Logger,
	}

	tools := []server.ServerTool{}
	for op := range cfg.Operations.List() {
		req, hasReq := cfg.Requirements.Requirement(op.Name)
		tool, err := newTool(op, req, hasReq)
		if err != nil {
			return nil, fmt.Errorf("could not create tool for %q: %w", op.Name, err)
		}
		tools = append(tools, server.ServerTool{Tool: tool, Handler: s.toolHandler(op)})
	}
	s.mcp.AddTools(tools...)
	s.logger.Infof("MCP server ready with %d tools", len(tools))

	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP over the stdio transport until the context is done
// or the input is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(logWriter{logger: s.logger}, "", 0))

	return stdio.Listen(ctx, in, out)
}

// HTTPHandler returns the streamable HTTP transport handler.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

func notifyClient(ctx context.Context, method string, params map[string]any) error {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return fmt.Errorf("missing mcp server on context")
	}
	return srv.SendNotificationToClient(ctx, method, params)
}

// logWriter adapts the transport standard logger to ours.
type logWriter struct {
	logger log.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Errorf("%s", strings.TrimSpace(string(p)))
	return len(p), nil
}
