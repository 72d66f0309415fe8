// internal/database/relations.sql.go
package database

import (
	"context"
)

const listOrganizationMembers = `-- name: ListOrganizationMembers :many
SELECT o.id, o.external_id, o.kind, o.login, o.avatar_url, o.profile_url, o.email, o.name, o.bio, o.description, o.website_url, o.db_created_at, o.db_updated_at
FROM organization_memberships m
JOIN repository_owners o ON o.id = m.user_id
WHERE m.organization_id = $1
ORDER BY lower(o.login)
`

func (q *Queries) ListOrganizationMembers(ctx context.Context, organizationID int64) ([]RepositoryOwner, error) {
	return collectOwners(q.db.Query(ctx, listOrganizationMembers, organizationID))
}

const listUserOrganizations = `-- name: ListUserOrganizations :many
SELECT o.id, o.external_id, o.kind, o.login, o.avatar_url, o.profile_url, o.email, o.name, o.bio, o.description, o.website_url, o.db_created_at, o.db_updated_at
FROM organization_memberships m
JOIN repository_owners o ON o.id = m.organization_id
WHERE m.user_id = $1
ORDER BY lower(o.login)
`

func (q *Queries) ListUserOrganizations(ctx context.Context, userID int64) ([]RepositoryOwner, error) {
	return collectOwners(q.db.Query(ctx, listUserOrganizations, userID))
}

const listRepositoryStargazers = `-- name: ListRepositoryStargazers :many
SELECT o.id, o.external_id, o.kind, o.login, o.avatar_url, o.profile_url, o.email, o.name, o.bio, o.description, o.website_url, o.db_created_at, o.db_updated_at
FROM repository_stargazers s
JOIN repository_owners o ON o.id = s.user_id
WHERE s.repository_id = $1
ORDER BY s.position
`

func (q *Queries) ListRepositoryStargazers(ctx context.Context, repositoryID int64) ([]RepositoryOwner, error) {
	return collectOwners(q.db.Query(ctx, listRepositoryStargazers, repositoryID))
}

const deleteOrganizationMembers = `-- name: DeleteOrganizationMembers :exec
DELETE FROM organization_memberships WHERE organization_id = $1
`

const insertOrganizationMembers = `-- name: InsertOrganizationMembers :exec
INSERT INTO organization_memberships (organization_id, user_id)
SELECT $1, u.id FROM unnest($2::bigint[]) AS u(id)
ON CONFLICT DO NOTHING
`

type ReplaceOrganizationMembersParams struct {
	OrganizationID int64
	UserIDs        []int64
}

func (q *Queries) ReplaceOrganizationMembers(ctx context.Context, arg ReplaceOrganizationMembersParams) error {
	if _, err := q.db.Exec(ctx, deleteOrganizationMembers, arg.OrganizationID); err != nil {
		return err
	}
	if len(arg.UserIDs) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx, insertOrganizationMembers, arg.OrganizationID, arg.UserIDs)
	return err
}

const deleteUserOrganizations = `-- name: DeleteUserOrganizations :exec
DELETE FROM organization_memberships WHERE user_id = $1
`

const insertUserOrganizations = `-- name: InsertUserOrganizations :exec
INSERT INTO organization_memberships (organization_id, user_id)
SELECT o.id, $1 FROM unnest($2::bigint[]) AS o(id)
ON CONFLICT DO NOTHING
`

type ReplaceUserOrganizationsParams struct {
	UserID          int64
	OrganizationIDs []int64
}

func (q *Queries) ReplaceUserOrganizations(ctx context.Context, arg ReplaceUserOrganizationsParams) error {
	if _, err := q.db.Exec(ctx, deleteUserOrganizations, arg.UserID); err != nil {
		return err
	}
	if len(arg.OrganizationIDs) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx, insertUserOrganizations, arg.UserID, arg.OrganizationIDs)
	return err
}

const deleteStarredRepositories = `-- name: DeleteStarredRepositories :exec
DELETE FROM starred_repositories WHERE user_id = $1
`

const insertStarredRepositories = `-- name: InsertStarredRepositories :exec
INSERT INTO starred_repositories (user_id, repository_id, position)
SELECT $1, r.id, r.ord - 1 FROM unnest($2::bigint[]) WITH ORDINALITY AS r(id, ord)
ON CONFLICT DO NOTHING
`

type ReplaceStarredRepositoriesParams struct {
	UserID        int64
	RepositoryIDs []int64
}

func (q *Queries) ReplaceStarredRepositories(ctx context.Context, arg ReplaceStarredRepositoriesParams) error {
	if _, err := q.db.Exec(ctx, deleteStarredRepositories, arg.UserID); err != nil {
		return err
	}
	if len(arg.RepositoryIDs) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx, insertStarredRepositories, arg.UserID, arg.RepositoryIDs)
	return err
}

const deleteRepositoryStargazers = `-- name: DeleteRepositoryStargazers :exec
DELETE FROM repository_stargazers WHERE repository_id = $1
`

const insertRepositoryStargazers = `-- name: InsertRepositoryStargazers :exec
INSERT INTO repository_stargazers (repository_id, user_id, position)
SELECT $1, u.id, u.ord - 1 FROM unnest($2::bigint[]) WITH ORDINALITY AS u(id, ord)
ON CONFLICT DO NOTHING
`

type ReplaceRepositoryStargazersParams struct {
	RepositoryID int64
	UserIDs      []int64
}

func (q *Queries) ReplaceRepositoryStargazers(ctx context.Context, arg ReplaceRepositoryStargazersParams) error {
	if _, err := q.db.Exec(ctx, deleteRepositoryStargazers, arg.RepositoryID); err != nil {
		return err
	}
	if len(arg.UserIDs) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx, insertRepositoryStargazers, arg.RepositoryID, arg.UserIDs)
	return err
}
