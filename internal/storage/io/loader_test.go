package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/glmcp/internal/model"
)

func TestCatalogYAMLRepository_GetCatalog(t *testing.T) {
	tests := map[string]struct {
		fs         fstest.MapFS
		path       string
		expCatalog model.Catalog
		expErr     bool
	}{
		"Valid catalog should load successfully": {
			fs: fstest.MapFS{
				"catalog.yaml": &fstest.MapFile{
					Data: []byte(`confirmations:
  - operation: delete_branch
    prompt: Write the reason of the deletion.
    required_fields: [confirm, reason]
long_running:
  - list_pipelines
disabled:
  - delete_merged_branches
`),
				},
			},
			path: "catalog.yaml",
			expCatalog: model.Catalog{
				Confirmations: []model.ElicitationRequirement{
					{Operation: "delete_branch", Prompt: "Write the reason of the deletion.", RequiredFields: []string{"confirm", "reason"}},
				},
				LongRunning: []string{"list_pipelines"},
				Disabled:    []string{"delete_merged_branches"},
			},
		},

		"Empty catalog should load successfully": {
			fs: fstest.MapFS{
				"empty.yaml": &fstest.MapFile{Data: []byte("---\n")},
			},
			path:       "empty.yaml",
			expCatalog: model.Catalog{},
		},

		"Missing file should fail": {
			fs:     fstest.MapFS{},
			path:   "missing.yaml",
			expErr: true,
		},

		"Invalid YAML should fail": {
			fs: fstest.MapFS{
				"bad.yaml": &fstest.MapFile{Data: []byte("confirmations: [")},
			},
			path:   "bad.yaml",
			expErr: true,
		},

		"Confirmation without operation should fail": {
			fs: fstest.MapFS{
				"catalog.yaml": &fstest.MapFile{Data: []byte(`confirmations:
  - required_fields: [confirm]
`)},
			},
			path:   "catalog.yaml",
			expErr: true,
		},

		"Confirmation without fields should fail": {
			fs: fstest.MapFS{
				"catalog.yaml": &fstest.MapFile{Data: []byte(`confirmations:
  - operation: delete_branch
`)},
			},
			path:   "catalog.yaml",
			expErr: true,
		},

		"Repeated confirmation should fail": {
			fs: fstest.MapFS{
				"catalog.yaml": &fstest.MapFile{Data: []byte(`confirmations:
  - operation: delete_branch
    required_fields: [confirm]
  - operation: delete_branch
    required_fields: [reason]
`)},
			},
			path:   "catalog.yaml",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewCatalogYAMLRepository(test.fs)

			got, err := repo.GetCatalog(context.Background(), test.path)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expCatalog, got)
		})
	}
}
