package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/retailsense/concierge/store"
)

func (d *DB) CreateQueryLog(ctx context.Context, create *store.QueryLog) (*store.QueryLog, error) {
	fields := []string{"uid", "conversation_id", "user_role", "query_text", "intent", "confidence", "routed_endpoint", "created_ts"}
	args := []any{create.UID, create.ConversationID, create.UserRole, create.QueryText, create.Intent, create.Confidence, create.RoutedEndpoint, create.CreatedTs}

	stmt := `INSERT INTO query_log (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create query_log")
	}

	return create, nil
}

func (d *DB) ListQueryLogs(ctx context.Context, find *store.FindQueryLog) ([]*store.QueryLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.UserRole != nil {
		where, args = append(where, "user_role = "+placeholder(len(args)+1)), append(args, *find.UserRole)
	}
	if find.Intent != nil {
		where, args = append(where, "intent = "+placeholder(len(args)+1)), append(args, *find.Intent)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, *find.CreatedTsAfter)
	}
	if find.CreatedTsBefore != nil {
		where, args = append(where, "created_ts <= "+placeholder(len(args)+1)), append(args, *find.CreatedTsBefore)
	}

	query := `SELECT id, uid, conversation_id, user_role, query_text, intent, confidence, routed_endpoint, created_ts
		FROM query_log
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
		return nil, errors.Wrap(err, "failed to list query_logs")
	}
	defer rows.Close()

	list := make([]*store.QueryLog, 0)
	for rows.Next() {
		q := &store.QueryLog{}
		if err := rows.Scan(&q.ID, &q.UID, &q.ConversationID, &q.UserRole, &q.QueryText, &q.Intent, &q.Confidence, &q.RoutedEndpoint, &q.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan query_log")
		}
		list = append(list, q)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate query_logs")
	}

	return list, nil
}

func (d *DB) DeleteQueryLog(ctx context.Context, delete *store.DeleteQueryLog) error {
	stmt := `DELETE FROM query_log WHERE id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete query_log")
	}
	return nil
}
