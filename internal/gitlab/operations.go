package gitlab

import (
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
)

// Operation names.
const (
	OpGetProject           = "get_project"
	OpListBranches         = "list_branches"
	OpListPipelines        = "list_pipelines"
	OpCreateBranch         = "create_branch"
	OpDeleteBranch         = "delete_branch"
	OpDeleteMergedBranches = "delete_merged_branches"
	OpExportPipelineReport = "export_pipeline_report"
)

const (
	maxPerPage      = 100
	defaultLimit    = 100
	defaultMaxPages = 50
)

// OperationsConfig is the configuration of the GitLab operations.
type OperationsConfig struct {
	Client *gl.Client
	Logger log.Logger
}

func (c *OperationsConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "gitlab.Operations"})
	return nil
}

// Operations are the GitLab backed operation handlers.
type Operations struct {
	client *gl.Client
	logger log.Logger
}

// NewOperations returns the GitLab operations.
func NewOperations(cfg OperationsConfig) (*Operations, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Operations{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

var projectParam = model.Parameter{
	Name:        "project",
	Type:        model.ParameterTypeString,
	Description: "Project ID or URL-encoded path (e.g. 'group/app')",
	Required:    true,
}

// Descriptors returns the operation descriptors backed by these handlers.
func (o *Operations) Descriptors() []model.Operation {
	return []model.Operation{
		{
			Name:        OpGetProject,
			Title:       "Get project",
			Description: "Get the details of a GitLab project.",
			Category:    model.CategoryProject,
			ReadOnly:    true,
			Idempotent:  true,
			Parameters:  []model.Parameter{projectParam},
			Handler:     model.HandlerFunc(o.getProject),
		},
		{
			Name:        OpListBranches,
			Title:       "List branches",
			Description: "List the branches of a project.",
			Category:    model.CategoryRepository,
			ReadOnly:    true,
			Idempotent:  true,
			Parameters: []model.Parameter{
				projectParam,
				{Name: "search", Type: model.ParameterTypeString, Description: "Only branches containing this text"},
				{Name: "limit", Type: model.ParameterTypeNumber, Description: "Max number of branches to return (default 100)"},
			},
			Handler: model.HandlerFunc(o.listBranches),
		},
		{
			Name:        OpListPipelines,
			Title:       "List pipelines",
			Description: "List the latest pipelines of a project.",
			Category:    model.CategoryPipeline,
			ReadOnly:    true,
			Idempotent:  true,
			Parameters: []model.Parameter{
				projectParam,
				{Name: "ref", Type: model.ParameterTypeString, Description: "Only pipelines of this ref"},
				{Name: "status", Type: model.ParameterTypeString, Description: "Only pipelines in this status (e.g. 'failed')"},
				{Name: "limit", Type: model.ParameterTypeNumber, Description: "Max number of pipelines to return (default 100)"},
			},
			Handler: model.HandlerFunc(o.listPipelines),
		},
		{
			Name:        OpCreateBranch,
			Title:       "Create branch",
			Description: "Create a branch from a ref.",
			Category:    model.CategoryRepository,
			Parameters: []model.Parameter{
				projectParam,
				{Name: "branch", Type: model.ParameterTypeString, Description: "Name of the new branch", Required: true},
				{Name: "ref", Type: model.ParameterTypeString, Description: "Branch name or commit SHA to create the branch from", Required: true},
			},
			Handler: model.HandlerFunc(o.createBranch),
		},
		{
			Name:        OpDeleteBranch,
			Title:       "Delete branch",
			Description: "Delete a branch of a project.",
			Category:    model.CategoryRepository,
			Destructive: true,
			Idempotent:  true,
			Parameters: []model.Parameter{
				projectParam,
				{Name: "branch", Type: model.ParameterTypeString, Description: "Name of the branch to delete", Required: true},
			},
			Handler: model.HandlerFunc(o.deleteBranch),
		},
		{
			Name:        OpDeleteMergedBranches,
			Title:       "Delete merged branches",
			Description: "Delete every branch already merged into the default branch. Protected branches are kept.",
			Category:    model.CategoryRepository,
			Destructive: true,
			Idempotent:  true,
			Parameters:  []model.Parameter{projectParam},
			Handler:     model.HandlerFunc(o.deleteMergedBranches),
		},
		{
			Name:        OpExportPipelineReport,
			Title:       "Export pipeline report",
			Description: "Walk the pipeline history of a project and summarize it by status and ref.",
			Category:    model.CategoryPipeline,
			ReadOnly:    true,
			LongRunning: true,
			Parameters: []model.Parameter{
				projectParam,
				{Name: "ref", Type: model.ParameterTypeString, Description: "Only pipelines of this ref"},
				{Name: "max_pages", Type: model.ParameterTypeNumber, Description: "Max number of pages to walk (default 50)"},
			},
			Handler: model.HandlerFunc(o.exportPipelineReport),
		},
	}
}

// DefaultRequirements returns the confirmations the destructive operations need by default.
func DefaultRequirements() []model.ElicitationRequirement {
	return []model.ElicitationRequirement{
		{
			Operation:      OpDeleteBranch,
			Prompt:         "This deletes the branch and its unmerged commits. Set 'confirm' to true to proceed.",
			RequiredFields: []string{"confirm"},
		},
		{
			Operation:      OpDeleteMergedBranches,
			Prompt:         "This deletes every merged branch of the project and can't be undone. Set 'confirm' and 'acknowledge_irreversible' to true to proceed.",
			RequiredFields: []string{"confirm", "acknowledge_irreversible"},
		},
	}
}
