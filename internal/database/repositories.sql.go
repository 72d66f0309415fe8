// internal/database/repositories.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const repositoryColumns = `id, external_id, owner_id, name, full_name, repo_created_at, repo_updated_at, is_locked, is_archived, is_disabled, is_fork, is_template, fork_count, description, url, star_count, primary_language, db_created_at, db_updated_at`

func scanRepository(row pgx.Row) (Repository, error) {
	var i Repository
	err := row.Scan(
		&i.ID,
		&i.ExternalID,
		&i.OwnerID,
		&i.Name,
		&i.FullName,
		&i.RepoCreatedAt,
		&i.RepoUpdatedAt,
		&i.IsLocked,
		&i.IsArchived,
		&i.IsDisabled,
		&i.IsFork,
		&i.IsTemplate,
		&i.ForkCount,
		&i.Description,
		&i.Url,
		&i.StarCount,
		&i.PrimaryLanguage,
		&i.DbCreatedAt,
		&i.DbUpdatedAt,
	)
	return i, err
}

func collectRepositories(rows pgx.Rows, err error) ([]Repository, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Repository
	for rows.Next() {
		i, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRepositoryByFullName = `-- name: GetRepositoryByFullName :one
SELECT ` + repositoryColumns + ` FROM repositories
WHERE lower(full_name) = lower($1)
ORDER BY db_updated_at DESC
LIMIT 1
`

func (q *Queries) GetRepositoryByFullName(ctx context.Context, fullName string) (Repository, error) {
	return scanRepository(q.db.QueryRow(ctx, getRepositoryByFullName, fullName))
}

const getRepositoriesByExternalIDs = `-- name: GetRepositoriesByExternalIDs :many
SELECT ` + repositoryColumns + ` FROM repositories
WHERE external_id = ANY($1::text[])
`

func (q *Queries) GetRepositoriesByExternalIDs(ctx context.Context, externalIds []string) ([]Repository, error) {
	return collectRepositories(q.db.Query(ctx, getRepositoriesByExternalIDs, externalIds))
}

const listOwnerRepositories = `-- name: ListOwnerRepositories :many
SELECT ` + repositoryColumns + ` FROM repositories
WHERE owner_id = $1
ORDER BY star_count < 0, star_count DESC, name
`

// ListOwnerRepositories orders by stars with unknown counts last.
func (q *Queries) ListOwnerRepositories(ctx context.Context, ownerID int64) ([]Repository, error) {
	return collectRepositories(q.db.Query(ctx, listOwnerRepositories, ownerID))
}

const listStarredRepositories = `-- name: ListStarredRepositories :many
SELECT r.id, r.external_id, r.owner_id, r.name, r.full_name, r.repo_created_at, r.repo_updated_at, r.is_locked, r.is_archived, r.is_disabled, r.is_fork, r.is_template, r.fork_count, r.description, r.url, r.star_count, r.primary_language, r.db_created_at, r.db_updated_at
FROM starred_repositories s
JOIN repositories r ON r.id = s.repository_id
WHERE s.user_id = $1
ORDER BY s.position
`

func (q *Queries) ListStarredRepositories(ctx context.Context, userID int64) ([]Repository, error) {
	return collectRepositories(q.db.Query(ctx, listStarredRepositories, userID))
}

const upsertRepository = `-- name: UpsertRepository :one
INSERT INTO repositories (
    external_id, owner_id, name, full_name, repo_created_at, repo_updated_at,
    is_locked, is_archived, is_disabled, is_fork, is_template, fork_count,
    description, url, primary_language
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (external_id) DO UPDATE SET
    owner_id = EXCLUDED.owner_id,
    name = EXCLUDED.name,
    full_name = EXCLUDED.full_name,
    repo_created_at = EXCLUDED.repo_created_at,
    repo_updated_at = EXCLUDED.repo_updated_at,
    is_locked = EXCLUDED.is_locked,
    is_archived = EXCLUDED.is_archived,
    is_disabled = EXCLUDED.is_disabled,
    is_fork = EXCLUDED.is_fork,
    is_template = EXCLUDED.is_template,
    fork_count = EXCLUDED.fork_count,
    description = EXCLUDED.description,
    url = EXCLUDED.url,
    primary_language = EXCLUDED.primary_language,
    db_updated_at = CASE
        WHEN (repositories.owner_id, repositories.name, repositories.full_name, repositories.repo_created_at, repositories.repo_updated_at,
              repositories.is_locked, repositories.is_archived, repositories.is_disabled, repositories.is_fork, repositories.is_template,
              repositories.fork_count, repositories.description, repositories.url, repositories.primary_language)
             IS DISTINCT FROM (EXCLUDED.owner_id, EXCLUDED.name, EXCLUDED.full_name, EXCLUDED.repo_created_at, EXCLUDED.repo_updated_at,
              EXCLUDED.is_locked, EXCLUDED.is_archived, EXCLUDED.is_disabled, EXCLUDED.is_fork, EXCLUDED.is_template,
              EXCLUDED.fork_count, EXCLUDED.description, EXCLUDED.url, EXCLUDED.primary_language)
        THEN now() ELSE repositories.db_updated_at END
RETURNING ` + repositoryColumns + `
`

type UpsertRepositoryParams struct {
	ExternalID      string
	OwnerID         int64
	Name            string
	FullName        string
	RepoCreatedAt   pgtype.Timestamptz
	RepoUpdatedAt   pgtype.Timestamptz
	IsLocked        bool
	IsArchived      bool
	IsDisabled      bool
	IsFork          bool
	IsTemplate      bool
	ForkCount       int32
	Description     pgtype.Text
	Url             string
	PrimaryLanguage pgtype.Text
}

// UpsertRepository never writes star_count; see UpdateStarCount.
func (q *Queries) UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (Repository, error) {
	return scanRepository(q.db.QueryRow(ctx, upsertRepository,
		arg.ExternalID,
		arg.OwnerID,
		arg.Name,
		arg.FullName,
		arg.RepoCreatedAt,
		arg.RepoUpdatedAt,
		arg.IsLocked,
		arg.IsArchived,
		arg.IsDisabled,
		arg.IsFork,
		arg.IsTemplate,
		arg.ForkCount,
		arg.Description,
		arg.Url,
		arg.PrimaryLanguage,
	))
}

const updateStarCount = `-- name: UpdateStarCount :execrows
UPDATE repositories
SET star_count = $2,
    db_updated_at = CASE WHEN star_count IS DISTINCT FROM $2 THEN now() ELSE db_updated_at END
WHERE external_id = $1
`

type UpdateStarCountParams struct {
	ExternalID string
	StarCount  int32
}

func (q *Queries) UpdateStarCount(ctx context.Context, arg UpdateStarCountParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateStarCount, arg.ExternalID, arg.StarCount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
