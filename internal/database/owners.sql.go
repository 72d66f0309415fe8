// internal/database/owners.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ownerColumns = `id, external_id, kind, login, avatar_url, profile_url, email, name, bio, description, website_url, db_created_at, db_updated_at`

func scanOwner(row pgx.Row) (RepositoryOwner, error) {
	var i RepositoryOwner
	err := row.Scan(
		&i.ID,
		&i.ExternalID,
		&i.Kind,
		&i.Login,
		&i.AvatarUrl,
		&i.ProfileUrl,
		&i.Email,
		&i.Name,
		&i.Bio,
		&i.Description,
		&i.WebsiteUrl,
		&i.DbCreatedAt,
		&i.DbUpdatedAt,
	)
	return i, err
}

func collectOwners(rows pgx.Rows, err error) ([]RepositoryOwner, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RepositoryOwner
	for rows.Next() {
		i, err := scanOwner(rows)
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

const getOwnerByLogin = `-- name: GetOwnerByLogin :one
SELECT ` + ownerColumns + ` FROM repository_owners
WHERE lower(login) = lower($1)
ORDER BY db_updated_at DESC
LIMIT 1
`

func (q *Queries) GetOwnerByLogin(ctx context.Context, login string) (RepositoryOwner, error) {
	return scanOwner(q.db.QueryRow(ctx, getOwnerByLogin, login))
}

const getOwnersByIDs = `-- name: GetOwnersByIDs :many
SELECT ` + ownerColumns + ` FROM repository_owners
WHERE id = ANY($1::bigint[])
`

func (q *Queries) GetOwnersByIDs(ctx context.Context, ids []int64) ([]RepositoryOwner, error) {
	return collectOwners(q.db.Query(ctx, getOwnersByIDs, ids))
}

const getOwnersByExternalIDs = `-- name: GetOwnersByExternalIDs :many
SELECT ` + ownerColumns + ` FROM repository_owners
WHERE external_id = ANY($1::text[])
`

func (q *Queries) GetOwnersByExternalIDs(ctx context.Context, externalIds []string) ([]RepositoryOwner, error) {
	return collectOwners(q.db.Query(ctx, getOwnersByExternalIDs, externalIds))
}

const upsertOwnerHeader = `-- name: UpsertOwnerHeader :one
INSERT INTO repository_owners (external_id, kind, login, avatar_url, profile_url)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (external_id) DO UPDATE SET
    kind = EXCLUDED.kind,
    login = EXCLUDED.login,
    avatar_url = EXCLUDED.avatar_url,
    profile_url = EXCLUDED.profile_url,
    bio = CASE WHEN EXCLUDED.kind = 'user' THEN repository_owners.bio END,
    description = CASE WHEN EXCLUDED.kind = 'organization' THEN repository_owners.description END,
    website_url = CASE WHEN EXCLUDED.kind = 'organization' THEN repository_owners.website_url END,
    db_updated_at = CASE
        WHEN (repository_owners.kind, repository_owners.login, repository_owners.avatar_url, repository_owners.profile_url)
             IS DISTINCT FROM (EXCLUDED.kind, EXCLUDED.login, EXCLUDED.avatar_url, EXCLUDED.profile_url)
        THEN now() ELSE repository_owners.db_updated_at END
RETURNING ` + ownerColumns + `
`

type UpsertOwnerHeaderParams struct {
	ExternalID string
	Kind       string
	Login      string
	AvatarUrl  string
	ProfileUrl string
}

// UpsertOwnerHeader writes only the columns every owner reference carries,
// leaving user and organization details untouched unless the kind changed,
// in which case the other kind's details are cleared.
func (q *Queries) UpsertOwnerHeader(ctx context.Context, arg UpsertOwnerHeaderParams) (RepositoryOwner, error) {
	return scanOwner(q.db.QueryRow(ctx, upsertOwnerHeader,
		arg.ExternalID,
		arg.Kind,
		arg.Login,
		arg.AvatarUrl,
		arg.ProfileUrl,
	))
}

const upsertOwner = `-- name: UpsertOwner :one
INSERT INTO repository_owners (external_id, kind, login, avatar_url, profile_url, email, name, bio, description, website_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (external_id) DO UPDATE SET
    kind = EXCLUDED.kind,
    login = EXCLUDED.login,
    avatar_url = EXCLUDED.avatar_url,
    profile_url = EXCLUDED.profile_url,
    email = EXCLUDED.email,
    name = EXCLUDED.name,
    bio = EXCLUDED.bio,
    description = EXCLUDED.description,
    website_url = EXCLUDED.website_url,
    db_updated_at = CASE
        WHEN (repository_owners.kind, repository_owners.login, repository_owners.avatar_url, repository_owners.profile_url,
              repository_owners.email, repository_owners.name, repository_owners.bio, repository_owners.description, repository_owners.website_url)
             IS DISTINCT FROM (EXCLUDED.kind, EXCLUDED.login, EXCLUDED.avatar_url, EXCLUDED.profile_url,
              EXCLUDED.email, EXCLUDED.name, EXCLUDED.bio, EXCLUDED.description, EXCLUDED.website_url)
        THEN now() ELSE repository_owners.db_updated_at END
RETURNING ` + ownerColumns + `
`

type UpsertOwnerParams struct {
	ExternalID  string
	Kind        string
	Login       string
	AvatarUrl   string
	ProfileUrl  string
	Email       pgtype.Text
	Name        pgtype.Text
	Bio         pgtype.Text
	Description pgtype.Text
	WebsiteUrl  pgtype.Text
}

func (q *Queries) UpsertOwner(ctx context.Context, arg UpsertOwnerParams) (RepositoryOwner, error) {
	return scanOwner(q.db.QueryRow(ctx, upsertOwner,
		arg.ExternalID,
		arg.Kind,
		arg.Login,
		arg.AvatarUrl,
		arg.ProfileUrl,
		arg.Email,
		arg.Name,
		arg.Bio,
		arg.Description,
		arg.WebsiteUrl,
	))
}
