// internal/database/databasetest/querier.go
package databasetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"catalog-sync/internal/database"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

var _ database.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) GetOwnerByLogin(ctx context.Context, login string) (database.RepositoryOwner, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) GetOwnersByIDs(ctx context.Context, ids []int64) ([]database.RepositoryOwner, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) GetOwnersByExternalIDs(ctx context.Context, externalIds []string) ([]database.RepositoryOwner, error) {
	args := m.Called(ctx, externalIds)
	return args.Get(0).([]database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) GetRepositoriesByExternalIDs(ctx context.Context, externalIds []string) ([]database.Repository, error) {
	args := m.Called(ctx, externalIds)
	return args.Get(0).([]database.Repository), args.Error(1)
}

func (m *MockQuerier) GetRepositoryByFullName(ctx context.Context, fullName string) (database.Repository, error) {
	args := m.Called(ctx, fullName)
	return args.Get(0).(database.Repository), args.Error(1)
}

func (m *MockQuerier) GetSyncMark(ctx context.Context, arg database.GetSyncMarkParams) (database.SyncMark, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.SyncMark), args.Error(1)
}

func (m *MockQuerier) ListOrganizationMembers(ctx context.Context, organizationID int64) ([]database.RepositoryOwner, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).([]database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) ListOwnerRepositories(ctx context.Context, ownerID int64) ([]database.Repository, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]database.Repository), args.Error(1)
}

func (m *MockQuerier) ListRepositoryLanguages(ctx context.Context, repositoryIds []int64) ([]database.RepositoryLanguage, error) {
	args := m.Called(ctx, repositoryIds)
	return args.Get(0).([]database.RepositoryLanguage), args.Error(1)
}

func (m *MockQuerier) ListRepositoryStargazers(ctx context.Context, repositoryID int64) ([]database.RepositoryOwner, error) {
	args := m.Called(ctx, repositoryID)
	return args.Get(0).([]database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) ListStarredRepositories(ctx context.Context, userID int64) ([]database.Repository, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]database.Repository), args.Error(1)
}

func (m *MockQuerier) ListUserOrganizations(ctx context.Context, userID int64) ([]database.RepositoryOwner, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) ReplaceOrganizationMembers(ctx context.Context, arg database.ReplaceOrganizationMembersParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) ReplaceRepositoryLanguages(ctx context.Context, arg database.ReplaceRepositoryLanguagesParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) ReplaceRepositoryStargazers(ctx context.Context, arg database.ReplaceRepositoryStargazersParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) ReplaceStarredRepositories(ctx context.Context, arg database.ReplaceStarredRepositoriesParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) ReplaceUserOrganizations(ctx context.Context, arg database.ReplaceUserOrganizationsParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockQuerier) UpdateStarCount(ctx context.Context, arg database.UpdateStarCountParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) UpsertLanguages(ctx context.Context, arg database.UpsertLanguagesParams) ([]database.Language, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]database.Language), args.Error(1)
}

func (m *MockQuerier) UpsertOwner(ctx context.Context, arg database.UpsertOwnerParams) (database.RepositoryOwner, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) UpsertOwnerHeader(ctx context.Context, arg database.UpsertOwnerHeaderParams) (database.RepositoryOwner, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.RepositoryOwner), args.Error(1)
}

func (m *MockQuerier) UpsertRepository(ctx context.Context, arg database.UpsertRepositoryParams) (database.Repository, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Repository), args.Error(1)
}

func (m *MockQuerier) UpsertSyncMark(ctx context.Context, arg database.UpsertSyncMarkParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
