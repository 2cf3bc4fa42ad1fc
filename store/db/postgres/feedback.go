package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/retailsense/concierge/store"
)

func (d *DB) CreateFeedback(ctx context.Context, create *store.Feedback) (*store.Feedback, error) {
	fields := []string{"uid", "query_log_id", "rating", "comment", "created_ts"}
	args := []any{create.UID, create.QueryLogID, create.Rating, create.Comment, create.CreatedTs}

	stmt := `INSERT INTO feedback (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create feedback")
	}

	return create, nil
}

func (d *DB) ListFeedback(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.QueryLogID != nil {
		where, args = append(where, "query_log_id = "+placeholder(len(args)+1)), append(args, *find.QueryLogID)
	}

	query := `SELECT id, uid, query_log_id, rating, comment, created_ts
		FROM feedback
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedback")
	}
	defer rows.Close()

	list := make([]*store.Feedback, 0)
	for rows.Next() {
		f := &store.Feedback{}
		if err := rows.Scan(&f.ID, &f.UID, &f.QueryLogID, &f.Rating, &f.Comment, &f.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback")
		}
		list = append(list, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate feedback")
	}

	return list, nil
}

func (d *DB) DeleteFeedback(ctx context.Context, delete *store.DeleteFeedback) error {
	stmt := `DELETE FROM feedback WHERE id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete feedback")
	}
	return nil
}
