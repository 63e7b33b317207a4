package gitlab

import (
	"context"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/slok/glmcp/internal/model"
)

// Project is the summary of a GitLab project.
type Project struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	Description       string `json:"description,omitempty"`
	DefaultBranch     string `json:"default_branch"`
	Visibility        string `json:"visibility"`
	WebURL            string `json:"web_url"`
}

func (o *Operations) getProject(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}

	p, resp, err := o.client.Projects.GetProject(project, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(err, resp, "getting project "+project)
	}

	return Project{
		ID:                int64(p.ID),
		Name:              p.Name,
		PathWithNamespace: p.PathWithNamespace,
		Description:       p.Description,
		DefaultBranch:     p.DefaultBranch,
		Visibility:        string(p.Visibility),
		WebURL:            p.WebURL,
	}, nil
}
