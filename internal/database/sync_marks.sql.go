// internal/database/sync_marks.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSyncMark = `-- name: GetSyncMark :one
SELECT subject, relation, synced_at FROM sync_marks
WHERE subject = $1 AND relation = $2
`

type GetSyncMarkParams struct {
	Subject  string
	Relation string
}

func (q *Queries) GetSyncMark(ctx context.Context, arg GetSyncMarkParams) (SyncMark, error) {
	row := q.db.QueryRow(ctx, getSyncMark, arg.Subject, arg.Relation)
	var i SyncMark
	err := row.Scan(&i.Subject, &i.Relation, &i.SyncedAt)
	return i, err
}

const upsertSyncMark = `-- name: UpsertSyncMark :exec
INSERT INTO sync_marks (subject, relation, synced_at)
VALUES ($1, $2, $3)
ON CONFLICT (subject, relation) DO UPDATE SET
    synced_at = GREATEST(sync_marks.synced_at, EXCLUDED.synced_at)
`

type UpsertSyncMarkParams struct {
	Subject  string
	Relation string
	SyncedAt pgtype.Timestamptz
}

func (q *Queries) UpsertSyncMark(ctx context.Context, arg UpsertSyncMarkParams) error {
	_, err := q.db.Exec(ctx, upsertSyncMark, arg.Subject, arg.Relation, arg.SyncedAt)
	return err
}
