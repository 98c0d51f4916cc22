package postgres

import (
	"context"
	"fmt"
	"strings"

	"example.com/commentcap/internal/domain"
)

type Writer struct {
	db *DB
}

func NewWriter(db *DB) *Writer { return &Writer{db: db} }

var actionCols = []string{
	"automation", "post_id", "comment_id", "subreddit", "num_comments",
	"flair_set", "comment_added", "post_locked", "modmail_sent", "actioned_at",
}

// InsertBatch appends applied action bundles to the audit log in one statement.
func (w *Writer) InsertBatch(ctx context.Context, items []domain.ActionRecord) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(actionCols))

	argi := 1
	for _, rec := range items {
		ph := make([]string, 0, len(actionCols))
		args = append(args,
			rec.Automation, rec.PostID, rec.CommentID, rec.Subreddit, rec.NumComments,
			rec.FlairSet, rec.CommentAdded, rec.PostLocked, rec.ModmailSent, rec.ActionedAt,
		)
		for range actionCols {
			ph = append(ph, fmt.Sprintf("$%d", argi))
			argi++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO action_log (" + strings.Join(actionCols, ",") + ") VALUES " +
		strings.Join(placeholders, ",")

	ct, err := w.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
