// internal/database/querier.go
package database

import (
	"context"
)

type Querier interface {
	GetOwnerByLogin(ctx context.Context, login string) (RepositoryOwner, error)
	GetOwnersByIDs(ctx context.Context, ids []int64) ([]RepositoryOwner, error)
	GetOwnersByExternalIDs(ctx context.Context, externalIds []string) ([]RepositoryOwner, error)
	GetRepositoriesByExternalIDs(ctx context.Context, externalIds []string) ([]Repository, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (Repository, error)
	GetSyncMark(ctx context.Context, arg GetSyncMarkParams) (SyncMark, error)
	ListOrganizationMembers(ctx context.Context, organizationID int64) ([]RepositoryOwner, error)
	ListOwnerRepositories(ctx context.Context, ownerID int64) ([]Repository, error)
	ListRepositoryLanguages(ctx context.Context, repositoryIds []int64) ([]RepositoryLanguage, error)
	ListRepositoryStargazers(ctx context.Context, repositoryID int64) ([]RepositoryOwner, error)
	ListStarredRepositories(ctx context.Context, userID int64) ([]Repository, error)
	ListUserOrganizations(ctx context.Context, userID int64) ([]RepositoryOwner, error)
	ReplaceOrganizationMembers(ctx context.Context, arg ReplaceOrganizationMembersParams) error
	ReplaceRepositoryLanguages(ctx context.Context, arg ReplaceRepositoryLanguagesParams) error
	ReplaceRepositoryStargazers(ctx context.Context, arg ReplaceRepositoryStargazersParams) error
	ReplaceStarredRepositories(ctx context.Context, arg ReplaceStarredRepositoriesParams) error
	ReplaceUserOrganizations(ctx context.Context, arg ReplaceUserOrganizationsParams) error
	UpdateStarCount(ctx context.Context, arg UpdateStarCountParams) (int64, error)
	UpsertLanguages(ctx context.Context, arg UpsertLanguagesParams) ([]Language, error)
	UpsertOwner(ctx context.Context, arg UpsertOwnerParams) (RepositoryOwner, error)
	UpsertOwnerHeader(ctx context.Context, arg UpsertOwnerHeaderParams) (RepositoryOwner, error)
	UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (Repository, error)
	UpsertSyncMark(ctx context.Context, arg UpsertSyncMarkParams) error
}

var _ Querier = (*Queries)(nil)
