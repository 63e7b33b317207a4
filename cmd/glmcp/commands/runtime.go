package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/glmcp/internal/app/runtime"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
	"github.com/slok/glmcp/internal/storage/io"
	"github.com/slok/glmcp/internal/storage/memory"
	"github.com/slok/glmcp/internal/storage/sqlite"
)

const (
	taskStoreSQLite = "sqlite"
	taskStoreMemory = "memory"
)

type runtimeConfig struct {
	TaskStore         string
	MaxBackground     int64
	ProgressRetention int
}

// newRuntime returns the runtime and the func that releases its task store.
func newRuntime(ctx context.Context, rootCmd *RootCommand, cfg runtimeConfig) (*runtime.Runtime, func() error, error) {
	var catalog *model.Catalog
	if rootCmd.CatalogPath != "" {
		c, err := loadCatalog(ctx, rootCmd.CatalogPath)
		if err != nil {
			return nil, nil, err
		}
		catalog = &c
	}

	repo, closeRepo, err := newTaskRepository(ctx, rootCmd, cfg.TaskStore)
	if err != nil {
		return nil, nil, err
	}

	rt, err := runtime.New(runtime.Config{
		GitLabURL:         rootCmd.GitLabURL,
		GitLabToken:       rootCmd.GitLabToken,
		Catalog:           catalog,
		Repository:        repo,
		MaxBackground:     cfg.MaxBackground,
		ProgressRetention: cfg.ProgressRetention,
		Logger:            rootCmd.Logger,
	})
	if err != nil {
		_ = closeRepo()
		return nil, nil, fmt.Errorf("could not create runtime: %w", err)
	}

	return rt, closeRepo, nil
}

func newTaskRepository(ctx context.Context, rootCmd *RootCommand, store string) (storage.TaskRepository, func() error, error) {
	switch store {
	case taskStoreMemory:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: rootCmd.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create repository: %w", err)
		}
		return repo, func() error { return nil }, nil
	case taskStoreSQLite, "":
		repo, err := newSQLiteRepository(ctx, rootCmd)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown task store %q: %w", store, model.ErrNotValid)
}

func newSQLiteRepository(ctx context.Context, rootCmd *RootCommand) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: rootCmd.DBPath,
		Logger: rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}
	return repo, nil
}

func loadCatalog(ctx context.Context, path string) (model.Catalog, error) {
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return model.Catalog{}, fmt.Errorf("could not resolve catalog path: %w", err)
		}
		path = absPath
	}

	repo := io.NewCatalogYAMLRepository(os.DirFS("/"))
	catalog, err := repo.GetCatalog(ctx, path[1:])
	if err != nil {
		return model.Catalog{}, fmt.Errorf("could not load catalog: %w", err)
	}

	return catalog, nil
}
