package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/glmcp/internal/app/runtime"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage/memory"
)

func TestNewRuntime(t *testing.T) {
	tests := map[string]struct {
		catalog    *model.Catalog
		expOps     []string
		expConfirm map[string][]string
		expLongRun []string
		expErr     bool
	}{
		"Without catalog every operation should be registered.": {
			expOps: []string{
				"get_project", "list_branches", "list_pipelines", "create_branch", "delete_branch",
				"delete_merged_branches", "export_pipeline_report",
				"list_operations", "get_task", "list_tasks", "cancel_task", "get_progress",
			},
			expConfirm: map[string][]string{
				"delete_branch":          {"confirm"},
				"delete_merged_branches": {"acknowledge_irreversible", "confirm"},
			},
			expLongRun: []string{"export_pipeline_report"},
		},
		"A catalog should override confirmations and disable operations.": {
			catalog: &model.Catalog{
				Confirmations: []model.ElicitationRequirement{
					{Operation: "delete_branch", Prompt: "Really delete it?", RequiredFields: []string{"i_know", "confirm"}},
				},
				LongRunning: []string{"delete_merged_branches"},
				Disabled:    []string{"create_branch"},
			},
			expOps: []string{
				"get_project", "list_branches", "list_pipelines", "delete_branch",
				"delete_merged_branches", "export_pipeline_report",
				"list_operations", "get_task", "list_tasks", "cancel_task", "get_progress",
			},
			expConfirm: map[string][]string{
				"delete_branch":          {"confirm", "i_know"},
				"delete_merged_branches": {"acknowledge_irreversible", "confirm"},
			},
			expLongRun: []string{"delete_merged_branches", "export_pipeline_report"},
		},
		"A catalog with an unknown operation should fail.": {
			catalog: &model.Catalog{Disabled: []string{"does_not_exist"}},
			expErr:  true,
		},
		"A catalog confirmation on a read-only operation should fail.": {
			catalog: &model.Catalog{
				Confirmations: []model.ElicitationRequirement{
					{Operation: "get_project", Prompt: "Sure?", RequiredFields: []string{"confirm"}},
				},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)

			rt, err := runtime.New(runtime.Config{
				GitLabURL:  "https://gitlab.example.com",
				Catalog:    test.catalog,
				Repository: repo,
			})
			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(err)

			gotOps := []string{}
			gotLongRun := []string{}
			for op := range rt.Registry.List() {
				gotOps = append(gotOps, op.Name)
				if op.LongRunning {
					gotLongRun = append(gotLongRun, op.Name)
				}
			}
			assert.Equal(test.expOps, gotOps)
			assert.Equal(test.expLongRun, gotLongRun)

			for op, fields := range test.expConfirm {
				req, ok := rt.Gate.Requirement(op)
				require.True(ok, op)
				assert.Equal(fields, req.RequiredFields)
			}
			assert.True(rt.Registry.Sealed())

			_, err = rt.Registry.Lookup("get_task")
			assert.NoError(err)
		})
	}
}

func TestNewRuntimeWithoutRepository(t *testing.T) {
	_, err := runtime.New(runtime.Config{})
	assert.Error(t, err)
}

func TestOperationInfos(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	rt, err := runtime.New(runtime.Config{Repository: repo})
	require.NoError(t, err)

	infos, err := rt.OperationInfos(model.CategoryPipeline)
	require.NoError(t, err)
	names := []string{}
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"list_pipelines", "export_pipeline_report"}, names)

	infos, err = rt.OperationInfos("")
	require.NoError(t, err)
	assert.Len(t, infos, 12)

	_, err = rt.OperationInfos("nope")
	assert.ErrorIs(t, err, model.ErrNotValid)
}
