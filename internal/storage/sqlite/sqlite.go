package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/glmcp/internal/log"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
	"github.com/slok/glmcp/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.TaskRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.TaskRepository = &Repository{}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	schema, err := migrator.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	if schema.Dirty {
		db.Close()
		return nil, fmt.Errorf("task store schema version %d is dirty", schema.Version)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s (schema version %d)", cfg.DBPath, schema.Version)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	result, taskErr, err := encodeOutcome(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (
			id, operation_name, invocation_id, state,
			result, error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.OperationName,
		t.InvocationID,
		t.State,
		result,
		taskErr,
		t.CreatedAt.UnixMilli(),
		t.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return fmt.Errorf("task %s: %w", t.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	query := `
		SELECT
			id, operation_name, invocation_id, state,
			result, error,
			created_at, updated_at
		FROM tasks
		WHERE id = ?
	`

	t, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return &t, nil
}

// ListTasks returns the tasks, oldest first.
func (r *Repository) ListTasks(ctx context.Context, opts storage.ListTasksOpts) ([]model.Task, error) {
	query := `
		SELECT
			id, operation_name, invocation_id, state,
			result, error,
			created_at, updated_at
		FROM tasks
	`
	var (
		where []string
		args  []any
	)
	if opts.State != nil {
		where = append(where, "state = ?")
		args = append(args, *opts.State)
	}
	if opts.OperationName != "" {
		where = append(where, "operation_name = ?")
		args = append(args, opts.OperationName)
	}
	if opts.InvocationID != "" {
		where = append(where, "invocation_id = ?")
		args = append(args, opts.InvocationID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

// UpdateTask updates an existing task if it is still in the expected state.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task, expected model.TaskState) error {
	result, taskErr, err := encodeOutcome(t)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET
			state = ?,
			result = ?,
			error = ?,
			updated_at = ?
		WHERE id = ? AND state = ?
	`

	res, err := r.db.ExecContext(ctx, query, t.State, result, taskErr, t.UpdatedAt.UnixMilli(), t.ID, expected)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		// Either missing or changed state under us.
		current, err := r.GetTask(ctx, t.ID)
		if err != nil {
			return err
		}
		return fmt.Errorf("task %s is %s, expected %s: %w", t.ID, current.State, expected, model.ErrInvalidTransition)
	}

	r.logger.Debugf("Updated task in repository: %s (%s -> %s)", t.ID, expected, t.State)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.Task, error) {
	var t model.Task
	var result, taskErr sql.NullString
	var createdAt, updatedAt int64

	err := s.Scan(
		&t.ID,
		&t.OperationName,
		&t.InvocationID,
		&t.State,
		&result,
		&taskErr,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	if result.Valid {
		if err := json.Unmarshal([]byte(result.String), &t.Result); err != nil {
			return model.Task{}, fmt.Errorf("could not decode task result: %w", err)
		}
	}
	if taskErr.Valid {
		var se model.StructuredError
		if err := json.Unmarshal([]byte(taskErr.String), &se); err != nil {
			return model.Task{}, fmt.Errorf("could not decode task error: %w", err)
		}
		t.Error = &se
	}

	t.CreatedAt = timeFromUnixMilli(createdAt)
	t.UpdatedAt = timeFromUnixMilli(updatedAt)

	return t, nil
}

func encodeOutcome(t model.Task) (result, taskErr *string, err error) {
	if t.Result != nil {
		b, err := json.Marshal(t.Result)
		if err != nil {
			return nil, nil, fmt.Errorf("could not encode task result: %w", err)
		}
		s := string(b)
		result = &s
	}
	if t.Error != nil {
		b, err := json.Marshal(t.Error)
		if err != nil {
			return nil, nil, fmt.Errorf("could not encode task error: %w", err)
		}
		s := string(b)
		taskErr = &s
	}

	return result, taskErr, nil
}

func timeFromUnixMilli(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
