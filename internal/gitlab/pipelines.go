package gitlab

import (
	"context"
	"fmt"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/slok/glmcp/internal/model"
)

// Pipeline is the summary of a CI pipeline.
type Pipeline struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	Ref       string     `json:"ref"`
	SHA       string     `json:"sha"`
	Source    string     `json:"source,omitempty"`
	WebURL    string     `json:"web_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// PipelineReport summarizes the pipeline history of a project.
type PipelineReport struct {
	Project     string         `json:"project"`
	Ref         string         `json:"ref,omitempty"`
	Pipelines   int            `json:"pipelines"`
	PagesWalked int            `json:"pages_walked"`
	Truncated   bool           `json:"truncated"`
	ByStatus    map[string]int `json:"by_status"`
	ByRef       map[string]int `json:"by_ref"`
	// SuccessRate is the percentage of finished pipelines that succeeded.
	SuccessRate float64 `json:"success_rate"`
}

func toPipeline(p *gl.PipelineInfo) Pipeline {
	return Pipeline{
		ID:        int64(p.ID),
		Status:    p.Status,
		Ref:       p.Ref,
		SHA:       p.SHA,
		Source:    string(p.Source),
		WebURL:    p.WebURL,
		CreatedAt: p.CreatedAt,
	}
}

func (o *Operations) listPipelines(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}
	limit, err := intArg(inv.Arguments, "limit", defaultLimit)
	if err != nil {
		return nil, err
	}

	opts := pipelineListOptions(inv.Arguments)
	if status := stringArg(inv.Arguments, "status"); status != "" {
		opts.Status = gl.Ptr(gl.BuildStateValue(status))
	}

	pipelines := []Pipeline{}
	for {
		page, resp, err := o.client.Pipelines.ListProjectPipelines(project, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, apiError(err, resp, "listing pipelines of "+project)
		}

		for _, p := range page {
			pipelines = append(pipelines, toPipeline(p))
			if len(pipelines) >= limit {
				return pipelines, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return pipelines, nil
}

func (o *Operations) exportPipelineReport(ctx context.Context, inv model.Invocation) (any, error) {
	project, err := requiredStringArg(inv.Arguments, "project")
	if err != nil {
		return nil, err
	}
	maxPages, err := intArg(inv.Arguments, "max_pages", defaultMaxPages)
	if err != nil {
		return nil, err
	}

	logger := o.logger.WithCtxValues(ctx)
	report := PipelineReport{
		Project:  project,
		Ref:      stringArg(inv.Arguments, "ref"),
		ByStatus: map[string]int{},
		ByRef:    map[string]int{},
	}

	opts := pipelineListOptions(inv.Arguments)
	totalPages := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline report stopped after %d pages: %w", report.PagesWalked, err)
		}

		page, resp, err := o.client.Pipelines.ListProjectPipelines(project, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, apiError(err, resp, "listing pipelines of "+project)
		}

		// GitLab omits the totals on very large collections.
		if report.PagesWalked == 0 && resp.TotalPages > 0 {
			totalPages = min(int(resp.TotalPages), maxPages)
			if err := inv.Progress.SetTotal(float64(totalPages)); err != nil {
				logger.Debugf("Progress total not set: %s", err)
			}
		}

		for _, p := range page {
			report.Pipelines++
			report.ByStatus[p.Status]++
			report.ByRef[p.Ref]++
		}
		report.PagesWalked++

		msg := fmt.Sprintf("page %d", report.PagesWalked)
		if totalPages > 0 {
			msg = fmt.Sprintf("page %d of %d", report.PagesWalked, totalPages)
		}
		// The collection can grow while walking it, progress is best effort.
		if err := inv.Progress.Advance(1, msg); err != nil {
			logger.Debugf("Progress not updated: %s", err)
		}

		if resp.NextPage == 0 {
			break
		}
		if report.PagesWalked >= maxPages {
			report.Truncated = true
			break
		}
		opts.Page = resp.NextPage
	}

	finished := report.ByStatus["success"] + report.ByStatus["failed"]
	if finished > 0 {
		report.SuccessRate = float64(report.ByStatus["success"]) / float64(finished) * 100
	}

	logger.Infof("Pipeline report of %s done: %d pipelines in %d pages", project, report.Pipelines, report.PagesWalked)
	return report, nil
}

func pipelineListOptions(args map[string]any) *gl.ListProjectPipelinesOptions {
	opts := &gl.ListProjectPipelinesOptions{ListOptions: gl.ListOptions{PerPage: maxPerPage}}
	if ref := stringArg(args, "ref"); ref != "" {
		opts.Ref = gl.Ptr(ref)
	}
	return opts
}
