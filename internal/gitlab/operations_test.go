package gitlab_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/elicitation"
	"github.com/slok/glmcp/internal/gitlab"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/progress"
	"github.com/slok/glmcp/internal/registry"
)

func newOperations(t *testing.T, mux *http.ServeMux) *gitlab.Operations {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := gitlab.NewClient(gitlab.ClientConfig{Token: "test-token", BaseURL: srv.URL})
	require.NoError(t, err)

	ops, err := gitlab.NewOperations(gitlab.OperationsConfig{Client: client})
	require.NoError(t, err)
	return ops
}

func invoke(t *testing.T, ops *gitlab.Operations, name string, args map[string]any) (any, *progress.Tracker, error) {
	t.Helper()

	tracker, err := progress.NewTracker(progress.TrackerConfig{InvocationID: "inv", Operation: name})
	require.NoError(t, err)

	for _, op := range ops.Descriptors() {
		if op.Name == name {
			res, err := op.Handler.Handle(context.Background(), model.Invocation{
				ID:        "inv",
				Operation: name,
				Arguments: args,
				Progress:  tracker,
			})
			return res, tracker, err
		}
	}

	t.Fatalf("operation %q not found", name)
	return nil, nil, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func paginate(w http.ResponseWriter, r *http.Request, pages [][]map[string]any) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		_, _ = fmt.Sscanf(p, "%d", &page)
	}
	w.Header().Set("X-Page", fmt.Sprint(page))
	w.Header().Set("X-Total-Pages", fmt.Sprint(len(pages)))
	if page < len(pages) {
		w.Header().Set("X-Next-Page", fmt.Sprint(page+1))
	}
	writeJSON(w, pages[page-1])
}

func TestDescriptorsRegisterWithRequirements(t *testing.T) {
	ops := newOperations(t, http.NewServeMux())

	reg, err := registry.NewRegistry(registry.RegistryConfig{})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterAll(ops.Descriptors()...))
	reg.Seal()

	gate, err := elicitation.NewGate(elicitation.GateConfig{Operations: reg, Requirements: gitlab.DefaultRequirements()})
	require.NoError(t, err)

	assert.True(t, gate.RequiresConfirmation(gitlab.OpDeleteBranch))
	assert.True(t, gate.RequiresConfirmation(gitlab.OpDeleteMergedBranches))
	assert.False(t, gate.RequiresConfirmation(gitlab.OpCreateBranch))

	op, err := reg.Lookup(gitlab.OpExportPipelineReport)
	require.NoError(t, err)
	assert.True(t, op.LongRunning)
}

func TestGetProject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/projects/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("PRIVATE-TOKEN"))
		writeJSON(w, map[string]any{
			"id":                  42,
			"name":                "app",
			"path_with_namespace": "group/app",
			"default_branch":      "main",
			"visibility":          "private",
			"web_url":             "https://gitlab.example.com/group/app",
		})
	})
	ops := newOperations(t, mux)

	res, _, err := invoke(t, ops, gitlab.OpGetProject, map[string]any{"project": "42"})
	require.NoError(t, err)
	assert.Equal(t, gitlab.Project{
		ID:                42,
		Name:              "app",
		PathWithNamespace: "group/app",
		DefaultBranch:     "main",
		Visibility:        "private",
		WebURL:            "https://gitlab.example.com/group/app",
	}, res)
}

func TestListBranches(t *testing.T) {
	pages := [][]map[string]any{
		{{"name": "main", "default": true, "protected": true}, {"name": "feature-a", "merged": true}},
		{{"name": "feature-b", "commit": map[string]any{"id": "abc123"}}},
	}

	tests := map[string]struct {
		args     map[string]any
		expNames []string
		expErr   bool
	}{
		"Listing should walk all the pages.": {
			args:     map[string]any{"project": "42"},
			expNames: []string{"main", "feature-a", "feature-b"},
		},

		"Listing should stop at the limit.": {
			args:     map[string]any{"project": "42", "limit": float64(2)},
			expNames: []string{"main", "feature-a"},
		},

		"A non integer limit should fail.": {
			args:   map[string]any{"project": "42", "limit": 1.5},
			expErr: true,
		},

		"A limit that doesn't fit an integer should fail.": {
			args:   map[string]any{"project": "42", "limit": 1e300},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects/42/repository/branches", func(w http.ResponseWriter, r *http.Request) {
				paginate(w, r, pages)
			})
			ops := newOperations(t, mux)

			res, _, err := invoke(t, ops, gitlab.OpListBranches, test.args)
			if test.expErr {
				require.Error(t, err)
				assert.Equal(t, model.ErrorKindValidation, dispatch.Classify(err).Kind)
				return
			}
			require.NoError(t, err)

			var names []string
			for _, b := range res.([]gitlab.Branch) {
				names = append(names, b.Name)
			}
			assert.Equal(t, test.expNames, names)
		})
	}
}

func TestCreateAndDeleteBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v4/projects/42/repository/branches", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		branch, _ := body["branch"].(string)
		if branch == "" {
			branch = r.URL.Query().Get("branch")
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"name": branch, "commit": map[string]any{"id": "abc123"}})
	})
	mux.HandleFunc("DELETE /api/v4/projects/42/repository/branches/feature", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/v4/projects/42/repository/merged_branches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	ops := newOperations(t, mux)

	res, _, err := invoke(t, ops, gitlab.OpCreateBranch, map[string]any{"project": "42", "branch": "feature", "ref": "main"})
	require.NoError(t, err)
	assert.Equal(t, gitlab.Branch{Name: "feature", CommitID: "abc123"}, res)

	res, _, err = invoke(t, ops, gitlab.OpDeleteBranch, map[string]any{"project": "42", "branch": "feature"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"deleted": true, "branch": "feature"}, res)

	res, _, err = invoke(t, ops, gitlab.OpDeleteMergedBranches, map[string]any{"project": "42"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"accepted": true}, res)
}

func TestAPIErrorsAreCategorized(t *testing.T) {
	tests := map[string]struct {
		status       int
		expKind      model.ErrorKind
		expRetriable bool
	}{
		"Unauthorized should be auth.":                  {status: http.StatusUnauthorized, expKind: model.ErrorKindAuth},
		"Forbidden should be permission.":               {status: http.StatusForbidden, expKind: model.ErrorKindPermission},
		"Not found should be not found.":                {status: http.StatusNotFound, expKind: model.ErrorKindNotFound},
		"Bad request should be validation.":             {status: http.StatusBadRequest, expKind: model.ErrorKindValidation},
		"Too many requests should be rate limited.":     {status: http.StatusTooManyRequests, expKind: model.ErrorKindRateLimited, expRetriable: true},
		"Server errors should be upstream unavailable.": {status: http.StatusBadGateway, expKind: model.ErrorKindUpstreamUnavailable, expRetriable: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects/42", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})
			ops := newOperations(t, mux)

			_, _, err := invoke(t, ops, gitlab.OpGetProject, map[string]any{"project": "42"})
			require.Error(t, err)

			se := dispatch.Classify(err)
			assert.Equal(t, test.expKind, se.Kind)
			assert.Equal(t, test.expRetriable, se.Retriable)
		})
	}
}

func TestListPipelines(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/projects/42/pipelines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "failed", r.URL.Query().Get("status"))
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		paginate(w, r, [][]map[string]any{{
			{"id": 1, "status": "failed", "ref": "main", "sha": "a1"},
			{"id": 2, "status": "failed", "ref": "main", "sha": "a2"},
		}})
	})
	ops := newOperations(t, mux)

	res, _, err := invoke(t, ops, gitlab.OpListPipelines, map[string]any{"project": "42", "ref": "main", "status": "failed"})
	require.NoError(t, err)

	pipelines := res.([]gitlab.Pipeline)
	require.Len(t, pipelines, 2)
	assert.Equal(t, int64(1), pipelines[0].ID)
	assert.Equal(t, "failed", pipelines[0].Status)
}

func TestExportPipelineReport(t *testing.T) {
	pages := [][]map[string]any{
		{{"id": 1, "status": "success", "ref": "main"}, {"id": 2, "status": "failed", "ref": "main"}},
		{{"id": 3, "status": "success", "ref": "feature"}, {"id": 4, "status": "success", "ref": "main"}},
		{{"id": 5, "status": "running", "ref": "main"}},
	}

	tests := map[string]struct {
		args        map[string]any
		expReport   gitlab.PipelineReport
		expProgress model.ProgressReport
	}{
		"Walking all the pages should report progress per page.": {
			args: map[string]any{"project": "42"},
			expReport: gitlab.PipelineReport{
				Project:     "42",
				Pipelines:   5,
				PagesWalked: 3,
				ByStatus:    map[string]int{"success": 3, "failed": 1, "running": 1},
				ByRef:       map[string]int{"main": 4, "feature": 1},
				SuccessRate: 75,
			},
			expProgress: model.ProgressReport{Current: 3, Total: 3, Percentage: 100, IsComplete: true, Message: "page 3 of 3"},
		},

		"Walking should stop at the max pages.": {
			args: map[string]any{"project": "42", "max_pages": float64(2)},
			expReport: gitlab.PipelineReport{
				Project:     "42",
				Pipelines:   4,
				PagesWalked: 2,
				Truncated:   true,
				ByStatus:    map[string]int{"success": 3, "failed": 1},
				ByRef:       map[string]int{"main": 3, "feature": 1},
				SuccessRate: 75,
			},
			expProgress: model.ProgressReport{Current: 2, Total: 2, Percentage: 100, IsComplete: true, Message: "page 2 of 2"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects/42/pipelines", func(w http.ResponseWriter, r *http.Request) {
				paginate(w, r, pages)
			})
			ops := newOperations(t, mux)

			res, tracker, err := invoke(t, ops, gitlab.OpExportPipelineReport, test.args)
			require.NoError(t, err)
			assert.Equal(t, test.expReport, res)

			got := tracker.Report()
			assert.Equal(t, test.expProgress.Current, got.Current)
			assert.Equal(t, test.expProgress.Total, got.Total)
			assert.Equal(t, test.expProgress.Percentage, got.Percentage)
			assert.Equal(t, test.expProgress.IsComplete, got.IsComplete)
			assert.Equal(t, test.expProgress.Message, got.Message)
		})
	}
}

func TestExportPipelineReportInvalidMaxPages(t *testing.T) {
	tests := map[string]struct {
		maxPages any
	}{
		"Zero max pages should fail.":                      {maxPages: float64(0)},
		"Negative max pages should fail.":                  {maxPages: float64(-3)},
		"Max pages that don't fit an integer should fail.": {maxPages: 1e300},
		"Non numeric max pages should fail.":               {maxPages: "all"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var hits atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects/42/pipelines", func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				writeJSON(w, []map[string]any{})
			})
			ops := newOperations(t, mux)

			_, _, err := invoke(t, ops, gitlab.OpExportPipelineReport, map[string]any{"project": "42", "max_pages": test.maxPages})
			require.Error(t, err)
			assert.Equal(t, model.ErrorKindValidation, dispatch.Classify(err).Kind)
			assert.Zero(t, hits.Load())
		})
	}
}

func TestExportPipelineReportStopsWhenCancelled(t *testing.T) {
	ops := newOperations(t, http.NewServeMux())

	tracker, err := progress.NewTracker(progress.TrackerConfig{Operation: gitlab.OpExportPipelineReport})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, op := range ops.Descriptors() {
		if op.Name != gitlab.OpExportPipelineReport {
			continue
		}
		_, err := op.Handler.Handle(ctx, model.Invocation{Arguments: map[string]any{"project": "42"}, Progress: tracker})
		assert.ErrorIs(t, err, context.Canceled)
	}
}
