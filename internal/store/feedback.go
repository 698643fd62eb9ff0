package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/CarlosNatanauan/listly/internal/model"
)

type FeedbackStore struct {
	db *sql.DB
}

func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

func scanFeedback(s scanner) (*model.Feedback, error) {
	var f model.Feedback
	if err := s.Scan(&f.ID, &f.UserID, &f.Rating, &f.AdditionalComments, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}

const feedbackCols = `id, user_id, rating, additional_comments, created_at`

func (s *FeedbackStore) Create(ctx context.Context, userID string, rating int, comments string) (*model.Feedback, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, rating, additional_comments, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, rating, comments, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FeedbackStore) GetByID(ctx context.Context, id string) (*model.Feedback, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+feedbackCols+` FROM feedback WHERE id = ?`, id)
	f, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return f, nil
}

// List returns all feedback across accounts, newest first.
func (s *FeedbackStore) List(ctx context.Context) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+feedbackCols+` FROM feedback ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	items := []model.Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

func (s *FeedbackStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteAll removes every feedback entry and returns how many were removed.
func (s *FeedbackStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feedback`)
	if err != nil {
		return 0, fmt.Errorf("delete all feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
