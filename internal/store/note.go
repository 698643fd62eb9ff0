package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/CarlosNatanauan/listly/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(s scanner) (*model.Note, error) {
	var n model.Note
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

const noteCols = `id, user_id, title, content, created_at`

func (s *NoteStore) Create(ctx context.Context, ownerID, title, content string) (*model.Note, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, ownerID, title, content, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// Get returns nil, nil when the note does not exist or belongs to someone else.
func (s *NoteStore) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteCols+` FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns the owner's notes, newest first.
func (s *NoteStore) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteCols+` FROM notes WHERE user_id = ? ORDER BY created_at DESC, id`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// Update returns nil, nil when no note of the owner has the given id.
func (s *NoteStore) Update(ctx context.Context, ownerID, id, title, content string) (*model.Note, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ? WHERE id = ? AND user_id = ?`,
		title, content, id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return s.Get(ctx, ownerID, id)
}

// Delete reports whether a note was removed.
func (s *NoteStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
