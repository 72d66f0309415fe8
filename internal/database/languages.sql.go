// internal/database/languages.sql.go
package database

import (
	"context"
)

const upsertLanguages = `-- name: UpsertLanguages :many
INSERT INTO languages (name, color)
SELECT l.name, NULLIF(l.color, '')
FROM unnest($1::text[], $2::text[]) AS l(name, color)
ON CONFLICT (name) DO UPDATE SET
    color = COALESCE(languages.color, EXCLUDED.color)
RETURNING id, name, color
`

// UpsertLanguagesParams holds parallel arrays. Names must be distinct.
type UpsertLanguagesParams struct {
	Names  []string
	Colors []string
}

// UpsertLanguages inserts missing languages and returns every requested row.
// An existing color is never replaced; a missing one is filled in.
func (q *Queries) UpsertLanguages(ctx context.Context, arg UpsertLanguagesParams) ([]Language, error) {
	rows, err := q.db.Query(ctx, upsertLanguages, arg.Names, arg.Colors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Language
	for rows.Next() {
		var i Language
		if err := rows.Scan(&i.ID, &i.Name, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRepositoryLanguages = `-- name: ListRepositoryLanguages :many
SELECT rl.repository_id, rl.language_name, rl.position, l.color
FROM repository_languages rl
JOIN languages l ON l.name = rl.language_name
WHERE rl.repository_id = ANY($1::bigint[])
ORDER BY rl.repository_id, rl.position
`

func (q *Queries) ListRepositoryLanguages(ctx context.Context, repositoryIds []int64) ([]RepositoryLanguage, error) {
	rows, err := q.db.Query(ctx, listRepositoryLanguages, repositoryIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RepositoryLanguage
	for rows.Next() {
		var i RepositoryLanguage
		if err := rows.Scan(&i.RepositoryID, &i.LanguageName, &i.Position, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRepositoryLanguages = `-- name: DeleteRepositoryLanguages :exec
DELETE FROM repository_languages WHERE repository_id = $1
`

const insertRepositoryLanguages = `-- name: InsertRepositoryLanguages :exec
INSERT INTO repository_languages (repository_id, language_name, position)
SELECT $1, l.name, l.ord - 1
FROM unnest($2::text[]) WITH ORDINALITY AS l(name, ord)
`

type ReplaceRepositoryLanguagesParams struct {
	RepositoryID int64
	Names        []string
}

// ReplaceRepositoryLanguages swaps the repository's language set for Names,
// keeping their order. Run it inside a transaction.
func (q *Queries) ReplaceRepositoryLanguages(ctx context.Context, arg ReplaceRepositoryLanguagesParams) error {
	if _, err := q.db.Exec(ctx, deleteRepositoryLanguages, arg.RepositoryID); err != nil {
		return err
	}
	if len(arg.Names) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx, insertRepositoryLanguages, arg.RepositoryID, arg.Names)
	return err
}
