package gitlab

import (
	"context"
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/slok/glmcp/internal/model"
)

// Branch is the summary of a repository branch.
type Branch struct {
	Name      string `json:"name"`
	Merged    bool   `json:"merged"`
	Protected bool   `json:"protected"`
	Default   bool   `json:"default"`
	CommitID  string `json:"commit_id,omitempty"`
	WebURL    string `json:"web_url,omitempty"`
}

func toBranch(b *gl.Branch) Branch {
	br := Branch{
		Name:      b.Name,
		Merged:    b.Merged,
		Protected: b.Protected,
		Default:   b.Default,
		WebURL:    b.WebURL,
	}
	if b.Commit != nil {
		br.CommitID = b.Commit.ID
	}
	return br
}

func (o *Operations) listBranches(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}
	limit, err := intArg(inv.Arguments, "limit", defaultLimit)
	if err != nil {
		return nil, err
	}

	opts := &gl.ListBranchesOptions{ListOptions: gl.ListOptions{PerPage: maxPerPage}}
	if search := stringArg(inv.Arguments, "search"); search != "" {
		opts.Search = gl.Ptr(search)
	}

	branches := []Branch{}
	for {
		page, resp, err := o.client.Branches.ListBranches(project, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, apiError(err, resp, "listing branches of "+project)
		}

		for _, b := range page {
			branches = append(branches, toBranch(b))
			if len(branches) >= limit {
				return branches, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return branches, nil
}

func (o *Operations) createBranch(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}
	branch, err := requiredStringArg(inv.Arguments, "branch")
	if err != nil {
		return nil, err
	}
	ref, err := requiredStringArg(inv.Arguments, "ref")
	if err != nil {
		return nil, err
	}

	b, resp, err := o.client.Branches.CreateBranch(project, &gl.CreateBranchOptions{
		Branch: gl.Ptr(branch),
		Ref:    gl.Ptr(ref),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(err, resp, fmt.Sprintf("creating branch %s in %s", branch, project))
	}

	o.logger.WithCtxValues(ctx).Infof("Branch %s created in %s from %s", branch, project, ref)
	return toBranch(b), nil
}

func (o *Operations) deleteBranch(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}
	branch, err := requiredStringArg(inv.Arguments, "branch")
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Branches.DeleteBranch(project, branch, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(err, resp, fmt.Sprintf("deleting branch %s in %s", branch, project))
	}

	o.logger.WithCtxValues(ctx).Infof("Branch %s deleted in %s", branch, project)
	return map[string]any{"deleted": true, "branch": branch}, nil
}

func (o *Operations) deleteMergedBranches(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Branches.DeleteMergedBranches(project, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(err, resp, "deleting merged branches of "+project)
	}

	// GitLab deletes them asynchronously.
	o.logger.WithCtxValues(ctx).Infof("Merged branches deletion scheduled in %s", project)
	return map[string]any{"accepted": true}, nil
}
