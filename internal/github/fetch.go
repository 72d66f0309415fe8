// internal/github/fetch.go
package github

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
	"catalog-sync/internal/paginate"
)

// Viewer fetches the account that owns cred.
func (c *Client) Viewer(ctx context.Context, cred model.Credential) (UserNode, error) {
	var q viewerQuery
	err := c.Query(ctx, "viewer", cred, &q, nil)
	if err = c.accept("viewer", err, q.Viewer.ID != ""); err != nil {
		return UserNode{}, err
	}
	return q.Viewer, nil
}

// User fetches a user by login.
func (c *Client) User(ctx context.Context, cred model.Credential, login string) (UserNode, error) {
	var q userQuery
	err := c.Query(ctx, "user", cred, &q, map[string]any{"login": githubv4.String(login)})
	if err = c.accept("user", err, q.User != nil); err != nil {
		return UserNode{}, err
	}
	if q.User == nil {
		return UserNode{}, fmt.Errorf("user %q: %w", login, custom_errors.ErrNotFound)
	}
	return *q.User, nil
}

// Organization fetches an organization by login.
func (c *Client) Organization(ctx context.Context, cred model.Credential, login string) (OrganizationNode, error) {
	var q organizationQuery
	err := c.Query(ctx, "organization", cred, &q, map[string]any{"login": githubv4.String(login)})
	if err = c.accept("organization", err, q.Organization != nil); err != nil {
		return OrganizationNode{}, err
	}
	if q.Organization == nil {
		return OrganizationNode{}, fmt.Errorf("organization %q: %w", login, custom_errors.ErrNotFound)
	}
	return *q.Organization, nil
}

// Repository fetches a repository together with its first languages.
func (c *Client) Repository(ctx context.Context, cred model.Credential, owner, name string) (RepositoryPayload, error) {
	var q repositoryQuery
	err := c.Query(ctx, "repository", cred, &q, map[string]any{
		"owner":          githubv4.String(owner),
		"name":           githubv4.String(name),
		"languagesFirst": githubv4.Int(nestedLanguagesSize),
	})
	if err = c.accept("repository", err, q.Repository != nil); err != nil {
		return RepositoryPayload{}, err
	}
	if q.Repository == nil {
		return RepositoryPayload{}, fmt.Errorf("repository %s/%s: %w", owner, name, custom_errors.ErrNotFound)
	}
	return q.Repository.payload(), nil
}

// StarCount fetches the stargazer count of a repository.
func (c *Client) StarCount(ctx context.Context, cred model.Credential, owner, name string) (int, error) {
	var q starCountQuery
	err := c.Query(ctx, "star count", cred, &q, map[string]any{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	})
	if err = c.accept("star count", err, q.Repository != nil); err != nil {
		return 0, err
	}
	if q.Repository == nil {
		return 0, fmt.Errorf("repository %s/%s: %w", owner, name, custom_errors.ErrNotFound)
	}
	return q.Repository.StargazerCount, nil
}

// OwnerRepositoriesPage fetches one page of the repositories owned by a user
// or organization, with their languages, most starred first.
func (c *Client) OwnerRepositoriesPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[RepositoryPayload], error) {
	var q ownerRepositoriesQuery
	err := c.Query(ctx, "owner repositories", cred, &q, map[string]any{
		"login":          githubv4.String(login),
		"first":          githubv4.Int(repositoriesPageSize),
		"languagesFirst": githubv4.Int(nestedLanguagesSize),
		"cursor":         (*githubv4.String)(cursor),
	})
	if err = c.accept("owner repositories", err, q.RepositoryOwner != nil); err != nil {
		return paginate.Page[RepositoryPayload]{}, err
	}
	if q.RepositoryOwner == nil {
		return paginate.Page[RepositoryPayload]{}, fmt.Errorf("owner %q: %w", login, custom_errors.ErrNotFound)
	}

	conn := q.RepositoryOwner.Repositories
	nodes := make([]RepositoryPayload, len(conn.Nodes))
	for i, n := range conn.Nodes {
		nodes[i] = n.payload()
	}
	return pageOf(nodes, conn.PageInfo), nil
}

// StarredRepositoriesPage fetches one page of a user's starred repositories.
func (c *Client) StarredRepositoriesPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[RepositoryPayload], error) {
	var q starredRepositoriesQuery
	err := c.Query(ctx, "starred repositories", cred, &q, map[string]any{
		"login":  githubv4.String(login),
		"first":  githubv4.Int(defaultPageSize),
		"cursor": (*githubv4.String)(cursor),
	})
	if err = c.accept("starred repositories", err, q.User != nil); err != nil {
		return paginate.Page[RepositoryPayload]{}, err
	}
	if q.User == nil {
		return paginate.Page[RepositoryPayload]{}, fmt.Errorf("user %q: %w", login, custom_errors.ErrNotFound)
	}

	conn := q.User.StarredRepositories
	nodes := make([]RepositoryPayload, len(conn.Nodes))
	for i, n := range conn.Nodes {
		nodes[i] = RepositoryPayload{RepositoryNode: n}
	}
	return pageOf(nodes, conn.PageInfo), nil
}

// UserOrganizationsPage fetches one page of a user's organizations.
func (c *Client) UserOrganizationsPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[OrganizationNode], error) {
	var q userOrganizationsQuery
	err := c.Query(ctx, "user organizations", cred, &q, map[string]any{
		"login":  githubv4.String(login),
		"first":  githubv4.Int(defaultPageSize),
		"cursor": (*githubv4.String)(cursor),
	})
	if err = c.accept("user organizations", err, q.User != nil); err != nil {
		return paginate.Page[OrganizationNode]{}, err
	}
	if q.User == nil {
		return paginate.Page[OrganizationNode]{}, fmt.Errorf("user %q: %w", login, custom_errors.ErrNotFound)
	}
	return pageOf(q.User.Organizations.Nodes, q.User.Organizations.PageInfo), nil
}

// OrganizationMembersPage fetches one page of an organization's members.
func (c *Client) OrganizationMembersPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[UserNode], error) {
	var q organizationMembersQuery
	err := c.Query(ctx, "organization members", cred, &q, map[string]any{
		"login":  githubv4.String(login),
		"first":  githubv4.Int(defaultPageSize),
		"cursor": (*githubv4.String)(cursor),
	})
	if err = c.accept("organization members", err, q.Organization != nil); err != nil {
		return paginate.Page[UserNode]{}, err
	}
	if q.Organization == nil {
		return paginate.Page[UserNode]{}, fmt.Errorf("organization %q: %w", login, custom_errors.ErrNotFound)
	}
	return pageOf(q.Organization.MembersWithRole.Nodes, q.Organization.MembersWithRole.PageInfo), nil
}

// RepositoryLanguagesPage fetches one page of a repository's languages, largest first.
func (c *Client) RepositoryLanguagesPage(ctx context.Context, cred model.Credential, owner, name string, cursor *string) (paginate.Page[LanguageNode], error) {
	var q repositoryLanguagesQuery
	err := c.Query(ctx, "repository languages", cred, &q, map[string]any{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"first":  githubv4.Int(defaultPageSize),
		"cursor": (*githubv4.String)(cursor),
	})
	if err = c.accept("repository languages", err, q.Repository != nil); err != nil {
		return paginate.Page[LanguageNode]{}, err
	}
	if q.Repository == nil {
		return paginate.Page[LanguageNode]{}, fmt.Errorf("repository %s/%s: %w", owner, name, custom_errors.ErrNotFound)
	}
	return pageOf(q.Repository.Languages.Nodes, q.Repository.Languages.PageInfo), nil
}

// StargazersPage fetches one page of a repository's stargazers.
func (c *Client) StargazersPage(ctx context.Context, cred model.Credential, owner, name string, cursor *string) (paginate.Page[UserNode], error) {
	var q stargazersQuery
	err := c.Query(ctx, "stargazers", cred, &q, map[string]any{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"first":  githubv4.Int(defaultPageSize),
		"cursor": (*githubv4.String)(cursor),
	})
	if err = c.accept("stargazers", err, q.Repository != nil); err != nil {
		return paginate.Page[UserNode]{}, err
	}
	if q.Repository == nil {
		return paginate.Page[UserNode]{}, fmt.Errorf("repository %s/%s: %w", owner, name, custom_errors.ErrNotFound)
	}
	return pageOf(q.Repository.Stargazers.Nodes, q.Repository.Stargazers.PageInfo), nil
}

func pageOf[T any](nodes []T, info PageInfo) paginate.Page[T] {
	return paginate.Page[T]{Nodes: nodes, EndCursor: info.EndCursor, HasNextPage: info.HasNextPage}
}
