package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/CarlosNatanauan/listly/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var completed int
	if err := s.Scan(&t.ID, &t.UserID, &t.Task, &completed, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Completed = completed != 0
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

const taskCols = `id, user_id, task, completed, created_at`

func (s *TaskStore) Create(ctx context.Context, ownerID, task string, completed bool) (*model.Task, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, task, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, ownerID, task, boolInt(completed), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *TaskStore) Get(ctx context.Context, ownerID, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the owner's tasks, open ones first, then newest first.
func (s *TaskStore) List(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE user_id = ? ORDER BY completed, created_at DESC, id`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(ctx context.Context, ownerID, id, task string, completed bool) (*model.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET task = ?, completed = ? WHERE id = ? AND user_id = ?`,
		task, boolInt(completed), id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return s.Get(ctx, ownerID, id)
}

func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
