package postgres

import (
	"context"
	"fmt"
	"time"
)

type MetricsTotals struct {
	Bundles       int64 `json:"bundles"`
	Posts         int64 `json:"posts"`
	FlairsSet     int64 `json:"flairs_set"`
	CommentsAdded int64 `json:"comments_added"`
	PostsLocked   int64 `json:"posts_locked"`
	ModmailsSent  int64 `json:"modmails_sent"`
}

type MetricsBucket struct {
	BucketStart int64 `json:"bucket_start"`
	Bundles     int64 `json:"bundles"`
	Posts       int64 `json:"posts"`
}

// MetricsFilter narrows audit queries. Empty strings mean "no filter".
type MetricsFilter struct {
	Automation string
	Subreddit  string
	From, To   time.Time
}

func (f MetricsFilter) where() (string, []any) {
	cond := "WHERE actioned_at >= $1 AND actioned_at <= $2"
	args := []any{f.From, f.To}
	idx := 3

	if f.Automation != "" {
		cond += fmt.Sprintf(" AND automation=$%d", idx)
		args = append(args, f.Automation)
		idx++
	}
	if f.Subreddit != "" {
		cond += fmt.Sprintf(" AND lower(subreddit)=lower($%d)", idx)
		args = append(args, f.Subreddit)
	}
	return cond, args
}

func (db *DB) QueryTotals(ctx context.Context, f MetricsFilter) (MetricsTotals, error) {
	var res MetricsTotals
	cond, args := f.where()

	sql := `SELECT COUNT(*)::bigint,
  COUNT(DISTINCT post_id)::bigint,
  COUNT(*) FILTER (WHERE flair_set)::bigint,
  COUNT(*) FILTER (WHERE comment_added)::bigint,
  COUNT(*) FILTER (WHERE post_locked)::bigint,
  COUNT(*) FILTER (WHERE modmail_sent)::bigint
FROM action_log ` + cond
	row := db.Pool.QueryRow(ctx, sql, args...)
	if err := row.Scan(&res.Bundles, &res.Posts, &res.FlairsSet, &res.CommentsAdded, &res.PostsLocked, &res.ModmailsSent); err != nil {
		return res, fmt.Errorf("scan totals: %w", err)
	}
	return res, nil
}

func (db *DB) QueryBucketsDaily(ctx context.Context, f MetricsFilter) ([]MetricsBucket, error) {
	cond, args := f.where()

	sql := fmt.Sprintf(`
SELECT
  EXTRACT(EPOCH FROM date_trunc('day', actioned_at))::bigint AS bucket_start,
  COUNT(*)::bigint AS cnt,
  COUNT(DISTINCT post_id)::bigint AS posts
FROM action_log
%s
GROUP BY 1
ORDER BY 1 ASC`, cond)

	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MetricsBucket
	for rows.Next() {
		var b MetricsBucket
		if err := rows.Scan(&b.BucketStart, &b.Bundles, &b.Posts); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
