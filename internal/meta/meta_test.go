package meta_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/glmcp/internal/dispatch"
	"github.com/slok/glmcp/internal/elicitation"
	"github.com/slok/glmcp/internal/meta"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/progress"
	"github.com/slok/glmcp/internal/registry"
	"github.com/slok/glmcp/internal/storage/memory"
	"github.com/slok/glmcp/internal/task"
)

type testEnv struct {
	dispatcher *dispatch.Dispatcher
	tasks      *task.Manager
}

func newTestEnv(t *testing.T, ops ...model.Operation) testEnv {
	t.Helper()

	reg, err := registry.NewRegistry(registry.RegistryConfig{})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterAll(ops...))

	gate, err := elicitation.NewGate(elicitation.GateConfig{
		Operations: reg,
		Requirements: []model.ElicitationRequirement{
			{Operation: "delete_branch", Prompt: "Delete the branch?", RequiredFields: []string{"confirm"}},
		},
	})
	require.NoError(t, err)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	tasks, err := task.NewManager(task.ManagerConfig{Repository: repo})
	require.NoError(t, err)
	ps, err := progress.NewStore(progress.StoreConfig{})
	require.NoError(t, err)

	d, err := dispatch.NewDispatcher(dispatch.DispatcherConfig{Registry: reg, Gate: gate, Tasks: tasks, Progress: ps})
	require.NoError(t, err)

	metaOps, err := meta.NewOperations(meta.OperationsConfig{
		Operations:   reg,
		Requirements: gate,
		Tasks:        tasks,
		Canceller:    d,
		Progress:     ps,
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterAll(metaOps.Descriptors()...))
	reg.Seal()

	return testEnv{dispatcher: d, tasks: tasks}
}

func noop(ctx context.Context, inv model.Invocation) (any, error) { return "ok", nil }

var testOps = []model.Operation{
	{
		Name:        "delete_branch",
		Description: "Delete a branch",
		Category:    model.CategoryRepository,
		Destructive: true,
		Handler:     model.HandlerFunc(noop),
	},
	{
		Name:        "export_report",
		Description: "Export a report",
		Category:    model.CategoryPipeline,
		ReadOnly:    true,
		LongRunning: true,
		Handler:     model.HandlerFunc(noop),
	},
}

func TestNewOperations(t *testing.T) {
	_, err := meta.NewOperations(meta.OperationsConfig{})
	assert.Error(t, err)
}

func TestListOperations(t *testing.T) {
	tests := map[string]struct {
		args     map[string]any
		expNames []string
		expErr   model.ErrorKind
	}{
		"Without category all the operations should be listed in registration order.": {
			args: map[string]any{},
			expNames: []string{
				"delete_branch", "export_report", "list_operations", "get_task",
				"list_tasks", "cancel_task", "get_progress",
			},
		},
		"With a category only its operations should be listed.": {
			args:     map[string]any{"category": "pipeline"},
			expNames: []string{"export_report"},
		},
		"A category without operations should return an empty list.": {
			args:     map[string]any{"category": "issue"},
			expNames: []string{},
		},
		"An unknown category should fail with a validation error.": {
			args:   map[string]any{"category": "nope"},
			expErr: model.ErrorKindValidation,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			env := newTestEnv(t, testOps...)
			out := env.dispatcher.Invoke(context.Background(), dispatch.Request{Operation: meta.OpListOperations, Arguments: test.args})

			if test.expErr != "" {
				require.True(out.Failed())
				assert.Equal(test.expErr, out.Err.Kind)
				return
			}
			require.False(out.Failed())

			infos := out.Result.([]meta.OperationInfo)
			gotNames := []string{}
			for _, info := range infos {
				gotNames = append(gotNames, info.Name)
			}
			assert.Equal(test.expNames, gotNames)
		})
	}
}

func TestListOperationsExposesConfirmation(t *testing.T) {
	env := newTestEnv(t, testOps...)

	out := env.dispatcher.Invoke(context.Background(), dispatch.Request{
		Operation: meta.OpListOperations,
		Arguments: map[string]any{"category": "repository"},
	})
	require.False(t, out.Failed())

	exp := []meta.OperationInfo{{
		Name:                 "delete_branch",
		Description:          "Delete a branch",
		Category:             model.CategoryRepository,
		IsDestructive:        true,
		RequiresConfirmation: true,
		ConfirmationPrompt:   "Delete the branch?",
		RequiredFields:       []string{"confirm"},
	}}
	assert.Equal(t, exp, out.Result)
}

func TestTaskOperations(t *testing.T) {
	env := newTestEnv(t, testOps...)
	ctx := context.Background()

	exported := env.dispatcher.Invoke(ctx, dispatch.Request{Operation: "export_report"})
	require.False(t, exported.Failed())
	require.NotNil(t, exported.Task)

	pending, err := env.tasks.Create(ctx, "export_report", "inv-pending")
	require.NoError(t, err)

	// Get.
	out := env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpGetTask, Arguments: map[string]any{"task_id": exported.Task.ID}})
	require.False(t, out.Failed())
	got := out.Result.(*model.Task)
	assert.Equal(t, model.TaskStateCompleted, got.State)
	assert.Equal(t, "ok", got.Result)

	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpGetTask, Arguments: map[string]any{"task_id": "missing"}})
	require.True(t, out.Failed())
	assert.Equal(t, model.ErrorKindNotFound, out.Err.Kind)

	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpGetTask})
	require.True(t, out.Failed())
	assert.Equal(t, model.ErrorKindValidation, out.Err.Kind)

	// List.
	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpListTasks, Arguments: map[string]any{"state": "pending"}})
	require.False(t, out.Failed())
	listed := out.Result.([]model.Task)
	require.Len(t, listed, 1)
	assert.Equal(t, pending.ID, listed[0].ID)

	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpListTasks, Arguments: map[string]any{"state": "cancelled"}})
	require.False(t, out.Failed())
	assert.Equal(t, []model.Task{}, out.Result)

	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpListTasks, Arguments: map[string]any{"state": "sleeping"}})
	require.True(t, out.Failed())
	assert.Equal(t, model.ErrorKindValidation, out.Err.Kind)

	// Cancel.
	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpCancelTask, Arguments: map[string]any{"task_id": pending.ID}})
	require.False(t, out.Failed())
	assert.Equal(t, model.TaskStateCancelled, out.Result.(*model.Task).State)

	// A finished task can't be cancelled.
	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpCancelTask, Arguments: map[string]any{"task_id": exported.Task.ID}})
	require.True(t, out.Failed())
	assert.Equal(t, model.ErrorKindValidation, out.Err.Kind)
}

func TestGetProgress(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	env := newTestEnv(t, model.Operation{
		Name:        "export_report",
		Category:    model.CategoryPipeline,
		LongRunning: true,
		Handler: model.HandlerFunc(func(ctx context.Context, inv model.Invocation) (any, error) {
			_ = inv.Progress.SetTotal(4)
			_ = inv.Progress.Advance(1, "page 1 of 4")
			close(started)
			<-release
			return "ok", nil
		}),
	})
	ctx := context.Background()

	sub, err := env.dispatcher.Submit(ctx, dispatch.Request{Operation: "export_report"})
	require.NoError(t, err)
	<-started

	out := env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpGetProgress, Arguments: map[string]any{"invocation_id": sub.InvocationID}})
	require.False(t, out.Failed())
	report := out.Result.(model.ProgressReport)
	assert.Equal(t, float64(25), report.Percentage)
	assert.Equal(t, "page 1 of 4", report.Message)
	assert.False(t, report.IsComplete)

	close(release)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, env.dispatcher.Wait(waitCtx))

	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpGetProgress, Arguments: map[string]any{"invocation_id": sub.InvocationID}})
	require.False(t, out.Failed())
	assert.True(t, out.Result.(model.ProgressReport).IsComplete)

	out = env.dispatcher.Invoke(ctx, dispatch.Request{Operation: meta.OpGetProgress, Arguments: map[string]any{"invocation_id": "missing"}})
	require.True(t, out.Failed())
	assert.Equal(t, model.ErrorKindNotFound, out.Err.Kind)
}
