// internal/syncer/service.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catalog-sync/internal/database"
	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/github"
	"catalog-sync/internal/model"
	"catalog-sync/internal/paginate"
	"catalog-sync/internal/reconcile"
	"catalog-sync/internal/tier"
)

// Upstream is the GitHub API surface the service reads from.
type Upstream interface {
	Viewer(ctx context.Context, cred model.Credential) (github.UserNode, error)
	User(ctx context.Context, cred model.Credential, login string) (github.UserNode, error)
	Organization(ctx context.Context, cred model.Credential, login string) (github.OrganizationNode, error)
	Repository(ctx context.Context, cred model.Credential, owner, name string) (github.RepositoryPayload, error)
	StarCount(ctx context.Context, cred model.Credential, owner, name string) (int, error)
	OwnerRepositoriesPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[github.RepositoryPayload], error)
	StarredRepositoriesPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[github.RepositoryPayload], error)
	UserOrganizationsPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[github.OrganizationNode], error)
	OrganizationMembersPage(ctx context.Context, cred model.Credential, login string, cursor *string) (paginate.Page[github.UserNode], error)
	RepositoryLanguagesPage(ctx context.Context, cred model.Credential, owner, name string, cursor *string) (paginate.Page[github.LanguageNode], error)
	StargazersPage(ctx context.Context, cred model.Credential, owner, name string, cursor *string) (paginate.Page[github.UserNode], error)
}

// Minimum tiers per operation.
const (
	tierViewer              = model.TierBasic
	tierUser                = model.TierBasic
	tierOrganization        = model.TierBasic
	tierRepository          = model.TierBasic
	tierLanguages           = model.TierBasic
	tierStarCount           = model.TierBasic
	tierStargazers          = model.TierBasic
	tierRepositories        = model.TierBasic
	tierStarred             = model.TierBasic
	tierOrganizationMembers = model.TierMedium
	tierUserOrganizations   = model.TierAdvanced
)

type Config struct {
	Policy                   Policy
	PageMaxRetries           uint64
	PageRetryInitialInterval time.Duration
}

// Service answers catalog reads from the cache or from GitHub, keeping the
// cache up to date with whatever it fetches.
type Service struct {
	upstream   Upstream
	q          database.Querier
	reconciler *reconcile.Reconciler
	policy     Policy
	retries    uint64
	retryDelay time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(upstream Upstream, q database.Querier, reconciler *reconcile.Reconciler, cfg Config, logger *slog.Logger) *Service {
	policy := cfg.Policy
	if policy == nil {
		policy = TTL(15 * time.Minute)
	}
	return &Service{
		upstream:   upstream,
		q:          q,
		reconciler: reconciler,
		policy:     policy,
		retries:    cfg.PageMaxRetries,
		retryDelay: cfg.PageRetryInitialInterval,
		now:        time.Now,
		logger:     logger.With("component", "syncer"),
	}
}

// RepositoryFilter narrows an owner's repositories.
type RepositoryFilter struct {
	IsTemplate *bool
}

func (f RepositoryFilter) apply(repos []model.Repository) []model.Repository {
	if f.IsTemplate == nil {
		return repos
	}
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if r.IsTemplate == *f.IsTemplate {
			out = append(out, r)
		}
	}
	return out
}

// gate resolves the caller's access and rejects it below min.
func (s *Service) gate(ctx context.Context, operation string, min model.Tier) (tier.Access, error) {
	session := tier.SessionFrom(ctx)
	if session == nil {
		return tier.Access{}, fmt.Errorf("%s: %w", operation, custom_errors.ErrUnauthenticated)
	}
	access := session.Access(ctx)
	if err := tier.Require(access, operation, min); err != nil {
		return tier.Access{}, err
	}
	return access, nil
}

// cachedOrFetch is the shape shared by every operation: gate, staleness check, then
// either a cache read or a fetch that reconciles into the cache. A fresh
// mark whose cache read fails falls through to a fetch.
func cachedOrFetch[T any](
	ctx context.Context,
	s *Service,
	operation string,
	min model.Tier,
	subject, relation string,
	read func(ctx context.Context) (T, error),
	fetch func(ctx context.Context, access tier.Access, mark *model.SyncMark) (T, error),
) (T, error) {
	var zero T
	access, err := s.gate(ctx, operation, min)
	if err != nil {
		return zero, err
	}

	now := s.now()
	mark := s.mark(ctx, subject, relation)
	if !policyFrom(ctx, s.policy).Stale(mark, now) {
		v, err := read(ctx)
		if err == nil {
			return v, nil
		}
		s.logger.Debug("Cache read failed, refetching", "operation", operation, "subject", subject, "error", err)
	}

	return fetch(ctx, access, &model.SyncMark{Subject: subject, Relation: relation, SyncedAt: now})
}

func collect[T any](ctx context.Context, s *Service, operation string, fetch paginate.FetchFunc[T]) ([]T, error) {
	return paginate.Collect(ctx, fetch,
		paginate.WithRetry[T](s.retries, s.retryDelay),
		paginate.WithPageHook[T](func(_ context.Context, index int, nodes []T) {
			s.logger.Debug("Fetched page", "operation", operation, "page", index, "count", len(nodes))
		}),
	)
}

// Viewer returns the signed-in account's GitHub user.
func (s *Service) Viewer(ctx context.Context) (*model.User, error) {
	session := tier.SessionFrom(ctx)
	if session == nil || session.Account() == nil {
		return nil, fmt.Errorf("viewer: %w", custom_errors.ErrUnauthenticated)
	}
	login := session.Account().Login

	return cachedOrFetch(ctx, s, "read viewer", tierViewer, userSubject(login), model.RelationSelf,
		func(ctx context.Context) (*model.User, error) {
			if login == "" {
				return nil, custom_errors.ErrNotFound
			}
			owner, _, err := s.cachedOwner(ctx, login, model.OwnerUser)
			if err != nil {
				return nil, err
			}
			return owner.(*model.User), nil
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) (*model.User, error) {
			node, err := s.upstream.Viewer(ctx, access.Credential)
			if err != nil {
				return nil, err
			}
			user, err := reconcile.User(node)
			if err != nil {
				return nil, err
			}
			mark.Subject = userSubject(user.Login)
			s.reconciler.SaveOwners(ctx, mark, user)
			return user, nil
		})
}

// User returns a user by login.
func (s *Service) User(ctx context.Context, login string) (*model.User, error) {
	return cachedOrFetch(ctx, s, "read user", tierUser, userSubject(login), model.RelationSelf,
		func(ctx context.Context) (*model.User, error) {
			owner, _, err := s.cachedOwner(ctx, login, model.OwnerUser)
			if err != nil {
				return nil, err
			}
			return owner.(*model.User), nil
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) (*model.User, error) {
			node, err := s.upstream.User(ctx, access.Credential, login)
			if err != nil {
				return nil, err
			}
			user, err := reconcile.User(node)
			if err != nil {
				return nil, err
			}
			s.reconciler.SaveOwners(ctx, mark, user)
			return user, nil
		})
}

// Organization returns an organization by login.
func (s *Service) Organization(ctx context.Context, login string) (*model.Organization, error) {
	return cachedOrFetch(ctx, s, "read organization", tierOrganization, orgSubject(login), model.RelationSelf,
		func(ctx context.Context) (*model.Organization, error) {
			owner, _, err := s.cachedOwner(ctx, login, model.OwnerOrganization)
			if err != nil {
				return nil, err
			}
			return owner.(*model.Organization), nil
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) (*model.Organization, error) {
			node, err := s.upstream.Organization(ctx, access.Credential, login)
			if err != nil {
				return nil, err
			}
			org, err := reconcile.Organization(node)
			if err != nil {
				return nil, err
			}
			s.reconciler.SaveOwners(ctx, mark, org)
			return org, nil
		})
}

// Repository returns a repository by owner and name.
func (s *Service) Repository(ctx context.Context, owner, name string) (*model.Repository, error) {
	id := RepoIdentifier{Owner: owner, Name: name}
	return cachedOrFetch(ctx, s, "read repository", tierRepository, repoSubject(id), model.RelationSelf,
		func(ctx context.Context) (*model.Repository, error) {
			repo, _, err := s.cachedRepository(ctx, id)
			if err != nil {
				return nil, err
			}
			return &repo, nil
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) (*model.Repository, error) {
			payload, err := s.upstream.Repository(ctx, access.Credential, owner, name)
			if err != nil {
				return nil, err
			}
			repo, err := reconcile.Repository(payload)
			if err != nil {
				return nil, err
			}
			saved := s.reconciler.SaveRepositories(ctx, []model.Repository{repo}, mark)
			return &saved[0], nil
		})
}

// RepositoryLanguages returns every language of repo, largest first.
func (s *Service) RepositoryLanguages(ctx context.Context, repo model.Repository) ([]model.Language, error) {
	id, err := repoIdentifier(repo)
	if err != nil {
		return nil, err
	}
	return cachedOrFetch(ctx, s, "read repository languages", tierLanguages, repoSubject(id), model.RelationLanguages,
		func(ctx context.Context) ([]model.Language, error) {
			cached, _, err := s.cachedRepository(ctx, id)
			if err != nil {
				return nil, err
			}
			return cached.Languages, nil
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) ([]model.Language, error) {
			nodes, err := collect[github.LanguageNode](ctx, s, "repository languages", func(ctx context.Context, cursor *string) (paginate.Page[github.LanguageNode], error) {
				return s.upstream.RepositoryLanguagesPage(ctx, access.Credential, id.Owner, id.Name, cursor)
			})
			if err != nil {
				return nil, err
			}
			langs := reconcile.Languages(nodes)
			if langs == nil {
				langs = []model.Language{}
			}
			return s.reconciler.SaveRepositoryLanguages(ctx, repo, langs, mark), nil
		})
}

// StarCount returns the stargazer count of repo. A cached repository whose
// stars were never fetched reports model.UnknownStars.
func (s *Service) StarCount(ctx context.Context, repo model.Repository) (model.StarCount, error) {
	id, err := repoIdentifier(repo)
	if err != nil {
		return model.UnknownStars, err
	}
	return cachedOrFetch(ctx, s, "read star count", tierStarCount, repoSubject(id), model.RelationStarCount,
		func(ctx context.Context) (model.StarCount, error) {
			row, err := s.q.GetRepositoryByFullName(ctx, id.String())
			if err != nil {
				return model.UnknownStars, notFound(err, "cached repository %s", id)
			}
			return model.StarCount(row.StarCount), nil
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) (model.StarCount, error) {
			stars, err := s.upstream.StarCount(ctx, access.Credential, id.Owner, id.Name)
			if err != nil {
				return model.UnknownStars, err
			}
			s.reconciler.SaveStarCount(ctx, repo, stars, mark)
			return model.StarCount(stars), nil
		})
}

// Stargazers returns the users who starred repo, most recent first.
func (s *Service) Stargazers(ctx context.Context, repo model.Repository) ([]*model.User, error) {
	id, err := repoIdentifier(repo)
	if err != nil {
		return nil, err
	}
	return cachedOrFetch(ctx, s, "read stargazers", tierStargazers, repoSubject(id), model.RelationStargazers,
		func(ctx context.Context) ([]*model.User, error) {
			row, err := s.q.GetRepositoryByFullName(ctx, id.String())
			if err != nil {
				return nil, notFound(err, "cached repository %s", id)
			}
			rows, err := s.q.ListRepositoryStargazers(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			return usersFromRows(rows)
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) ([]*model.User, error) {
			nodes, err := collect[github.UserNode](ctx, s, "stargazers", func(ctx context.Context, cursor *string) (paginate.Page[github.UserNode], error) {
				return s.upstream.StargazersPage(ctx, access.Credential, id.Owner, id.Name, cursor)
			})
			if err != nil {
				return nil, err
			}
			users := reconcile.Users(s.logger, nodes)
			s.reconciler.ReplaceStargazers(ctx, repo, users, mark)
			return users, nil
		})
}

// OwnerRepositories returns the repositories of a user or organization,
// most starred first.
func (s *Service) OwnerRepositories(ctx context.Context, owner model.Owner, filter RepositoryFilter) ([]model.Repository, error) {
	login := owner.Header().Login
	repos, err := cachedOrFetch(ctx, s, "read repositories", tierRepositories, ownerSubject(owner), model.RelationRepositories,
		func(ctx context.Context) ([]model.Repository, error) {
			_, row, err := s.cachedOwner(ctx, login, owner.Kind())
			if err != nil {
				return nil, err
			}
			rows, err := s.q.ListOwnerRepositories(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			return s.hydrate(ctx, rows, true)
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) ([]model.Repository, error) {
			payloads, err := collect[github.RepositoryPayload](ctx, s, "owner repositories", func(ctx context.Context, cursor *string) (paginate.Page[github.RepositoryPayload], error) {
				return s.upstream.OwnerRepositoriesPage(ctx, access.Credential, login, cursor)
			})
			if err != nil {
				return nil, err
			}
			return s.reconciler.SaveRepositories(ctx, reconcile.Repositories(s.logger, payloads), mark), nil
		})
	if err != nil {
		return nil, err
	}
	return filter.apply(repos), nil
}

// StarredRepositories returns the repositories user has starred, most
// recent first.
func (s *Service) StarredRepositories(ctx context.Context, user model.User) ([]model.Repository, error) {
	return cachedOrFetch(ctx, s, "read starred repositories", tierStarred, userSubject(user.Login), model.RelationStarred,
		func(ctx context.Context) ([]model.Repository, error) {
			_, row, err := s.cachedOwner(ctx, user.Login, model.OwnerUser)
			if err != nil {
				return nil, err
			}
			rows, err := s.q.ListStarredRepositories(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			return s.hydrate(ctx, rows, false)
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) ([]model.Repository, error) {
			payloads, err := collect[github.RepositoryPayload](ctx, s, "starred repositories", func(ctx context.Context, cursor *string) (paginate.Page[github.RepositoryPayload], error) {
				return s.upstream.StarredRepositoriesPage(ctx, access.Credential, user.Login, cursor)
			})
			if err != nil {
				return nil, err
			}
			return s.reconciler.ReplaceStarred(ctx, user, reconcile.Repositories(s.logger, payloads), mark), nil
		})
}

// UserOrganizations returns the organizations user belongs to.
func (s *Service) UserOrganizations(ctx context.Context, user model.User) ([]*model.Organization, error) {
	return cachedOrFetch(ctx, s, "read user organizations", tierUserOrganizations, userSubject(user.Login), model.RelationOrgs,
		func(ctx context.Context) ([]*model.Organization, error) {
			_, row, err := s.cachedOwner(ctx, user.Login, model.OwnerUser)
			if err != nil {
				return nil, err
			}
			rows, err := s.q.ListUserOrganizations(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			return organizationsFromRows(rows)
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) ([]*model.Organization, error) {
			nodes, err := collect[github.OrganizationNode](ctx, s, "user organizations", func(ctx context.Context, cursor *string) (paginate.Page[github.OrganizationNode], error) {
				return s.upstream.UserOrganizationsPage(ctx, access.Credential, user.Login, cursor)
			})
			if err != nil {
				return nil, err
			}
			orgs := reconcile.Organizations(s.logger, nodes)
			s.reconciler.ReplaceUserOrganizations(ctx, user, orgs, mark)
			return orgs, nil
		})
}

// OrganizationMembers returns the members of org.
func (s *Service) OrganizationMembers(ctx context.Context, org model.Organization) ([]*model.User, error) {
	return cachedOrFetch(ctx, s, "list organization members", tierOrganizationMembers, orgSubject(org.Login), model.RelationMembers,
		func(ctx context.Context) ([]*model.User, error) {
			_, row, err := s.cachedOwner(ctx, org.Login, model.OwnerOrganization)
			if err != nil {
				return nil, err
			}
			rows, err := s.q.ListOrganizationMembers(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			return usersFromRows(rows)
		},
		func(ctx context.Context, access tier.Access, mark *model.SyncMark) ([]*model.User, error) {
			nodes, err := collect[github.UserNode](ctx, s, "organization members", func(ctx context.Context, cursor *string) (paginate.Page[github.UserNode], error) {
				return s.upstream.OrganizationMembersPage(ctx, access.Credential, org.Login, cursor)
			})
			if err != nil {
				return nil, err
			}
			members := reconcile.Users(s.logger, nodes)
			s.reconciler.ReplaceOrganizationMembers(ctx, org, members, mark)
			return members, nil
		})
}
