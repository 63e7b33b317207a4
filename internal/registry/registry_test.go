package registry_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/registry"
)

var noopHandler = model.HandlerFunc(func(ctx context.Context, inv model.Invocation) (any, error) { return nil, nil })

func newOp(name string, cat model.Category) model.Operation {
	return model.Operation{Name: name, Category: cat, Handler: noopHandler}
}

func names(ops []model.Operation) []string {
	n := make([]string, 0, len(ops))
	for _, op := range ops {
		n = append(n, op.Name)
	}
	return n
}

func TestRegistryRegister(t *testing.T) {
	tests := map[string]struct {
		register func(r *registry.Registry) error
		expErr   error
	}{
		"Registering different operations should work.": {
			register: func(r *registry.Registry) error {
				return r.RegisterAll(newOp("a", model.CategoryProject), newOp("b", model.CategoryPipeline))
			},
		},

		"Registering the same name twice should fail.": {
			register: func(r *registry.Registry) error {
				return r.RegisterAll(newOp("a", model.CategoryProject), newOp("a", model.CategoryPipeline))
			},
			expErr: model.ErrDuplicateOperation,
		},

		"Registering a destructive and read-only operation should fail.": {
			register: func(r *registry.Registry) error {
				op := newOp("a", model.CategoryProject)
				op.Destructive = true
				op.ReadOnly = true
				return r.Register(op)
			},
			expErr: model.ErrDuplicateOperation,
		},

		"Registering an invalid operation should fail.": {
			register: func(r *registry.Registry) error {
				return r.Register(model.Operation{Name: "a", Category: model.CategoryProject})
			},
			expErr: model.ErrNotValid,
		},

		"Registering on a sealed registry should fail.": {
			register: func(r *registry.Registry) error {
				r.Seal()
				return r.Register(newOp("a", model.CategoryProject))
			},
			expErr: model.ErrRegistrySealed,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := registry.NewRegistry(registry.RegistryConfig{})
			require.NoError(t, err)

			err = test.register(r)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistryDuplicateDoesNotOverwrite(t *testing.T) {
	r, err := registry.NewRegistry(registry.RegistryConfig{})
	require.NoError(t, err)

	first := newOp("a", model.CategoryProject)
	first.Description = "first"
	second := newOp("a", model.CategoryProject)
	second.Description = "second"

	require.NoError(t, r.Register(first))
	require.Error(t, r.Register(second))

	got, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Description)
}

func TestRegistryLookup(t *testing.T) {
	r, err := registry.NewRegistry(registry.RegistryConfig{})
	require.NoError(t, err)
	require.NoError(t, r.Register(newOp("a", model.CategoryProject)))
	r.Seal()
	assert.True(t, r.Sealed())

	op, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "a", op.Name)

	_, err = r.Lookup("does_not_exist")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegistryListByCategory(t *testing.T) {
	r, err := registry.NewRegistry(registry.RegistryConfig{})
	require.NoError(t, err)
	require.NoError(t, r.RegisterAll(
		newOp("list_pipelines", model.CategoryPipeline),
		newOp("get_project", model.CategoryProject),
		newOp("export_pipeline_report", model.CategoryPipeline),
	))
	r.Seal()

	seq := r.ListByCategory(model.CategoryPipeline)

	// Sequences must be restartable.
	assert.Equal(t, []string{"list_pipelines", "export_pipeline_report"}, names(slices.Collect(seq)))
	assert.Equal(t, []string{"list_pipelines", "export_pipeline_report"}, names(slices.Collect(seq)))

	assert.Empty(t, slices.Collect(r.ListByCategory(model.CategoryIssue)))
	assert.Equal(t, []string{"list_pipelines", "get_project", "export_pipeline_report"}, names(slices.Collect(r.List())))

	// Early stop.
	for op := range r.List() {
		assert.Equal(t, "list_pipelines", op.Name)
		break
	}
}
