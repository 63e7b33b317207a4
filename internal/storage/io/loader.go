package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/glmcp/internal/model"
)

// CatalogYAMLRepository loads operation catalogs from YAML files.
type CatalogYAMLRepository struct {
	fs fs.FS
}

// NewCatalogYAMLRepository creates a new YAML catalog repository.
func NewCatalogYAMLRepository(filesystem fs.FS) *CatalogYAMLRepository {
	return &CatalogYAMLRepository{fs: filesystem}
}

// GetCatalog loads a catalog from a YAML file and returns a validated domain model.
func (r *CatalogYAMLRepository) GetCatalog(ctx context.Context, path string) (model.Catalog, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("reading catalog file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Catalog{}, ctx.Err()
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Catalog{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return model.Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}

	return cfg.toModel(), nil
}

// CatalogConfig represents the YAML structure of an operation catalog.
type CatalogConfig struct {
	Confirmations []ConfirmationConfig `yaml:"confirmations"`
	LongRunning   []string             `yaml:"long_running"`
	Disabled      []string             `yaml:"disabled"`
}

// ConfirmationConfig represents the YAML structure of an elicitation requirement.
type ConfirmationConfig struct {
	Operation      string   `yaml:"operation"`
	Prompt         string   `yaml:"prompt"`
	RequiredFields []string `yaml:"required_fields"`
}

func (c CatalogConfig) validate() error {
	seen := map[string]bool{}
	for i, conf := range c.Confirmations {
		if conf.Operation == "" {
			return fmt.Errorf("confirmations[%d]: operation is required", i)
		}
		if seen[conf.Operation] {
			return fmt.Errorf("confirmations[%d]: operation %q is repeated", i, conf.Operation)
		}
		seen[conf.Operation] = true

		if len(conf.RequiredFields) == 0 {
			return fmt.Errorf("confirmations[%d]: at least one required field is needed", i)
		}
		for _, f := range conf.RequiredFields {
			if f == "" {
				return fmt.Errorf("confirmations[%d]: required fields can't be empty", i)
			}
		}
	}

	for _, name := range c.LongRunning {
		if name == "" {
			return fmt.Errorf("long_running: operation names can't be empty")
		}
	}
	for _, name := range c.Disabled {
		if name == "" {
			return fmt.Errorf("disabled: operation names can't be empty")
		}
	}

	return nil
}

func (c CatalogConfig) toModel() model.Catalog {
	cat := model.Catalog{
		LongRunning: c.LongRunning,
		Disabled:    c.Disabled,
	}
	for _, conf := range c.Confirmations {
		cat.Confirmations = append(cat.Confirmations, model.ElicitationRequirement{
			Operation:      conf.Operation,
			Prompt:         conf.Prompt,
			RequiredFields: conf.RequiredFields,
		})
	}

	return cat
}
