// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog-sync/internal/database"
	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/github"
	"catalog-sync/internal/loader"
	"catalog-sync/internal/model"
	"catalog-sync/internal/tier"
)

const (
	// Number of tracked entities to refresh in parallel
	concurrency = 5
)

// Syncer periodically refreshes tracked accounts and repositories with the
// app-wide credential, regardless of how fresh their cache entries are.
type Syncer struct {
	service      *Service
	q            database.Querier
	app          github.CredentialSource
	logger       *slog.Logger
	logins       []string
	reposToSync  []RepoIdentifier
	syncInterval time.Duration
	loaderWait   time.Duration
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(service *Service, q database.Querier, app github.CredentialSource, logger *slog.Logger, logins, repos []string, interval, loaderWait time.Duration) (*Syncer, error) {
	parsedRepos, err := parseRepoIdentifiers(repos)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		service:      service,
		q:            q,
		app:          app,
		logger:       logger.With("component", "refresher"),
		logins:       logins,
		reposToSync:  parsedRepos,
		syncInterval: interval,
		loaderWait:   loaderWait,
	}, nil
}

// Start begins the continuous synchronization process.
func (s *Syncer) Start(ctx context.Context) {
	if len(s.logins) == 0 && len(s.reposToSync) == 0 {
		s.logger.Info("Nothing tracked, refresher idle")
		return
	}
	s.logger.Info("Starting refresher", "interval", s.syncInterval.String(), "concurrency", concurrency)
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	s.RunOnce(ctx) // Initial sync

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Refresher shutting down", "reason", ctx.Err())
			return
		}
	}
}

// RunOnce refreshes every tracked login and repository concurrently.
func (s *Syncer) RunOnce(ctx context.Context) {
	s.logger.Info("Starting new sync cycle")
	cred, err := s.app.Credential(ctx)
	if err != nil {
		s.logger.Error("App credential unavailable, skipping cycle", "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, login := range s.logins {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := s.RefreshOwner(s.unitContext(gctx, cred), login); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Failed to refresh account", "login", login, "error", err)
			}
			return nil
		})
	}
	for _, repoID := range s.reposToSync {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := s.RefreshRepository(s.unitContext(gctx, cred), repoID); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Failed to refresh repository", "owner", repoID.Owner, "repo", repoID.Name, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Sync cycle finished with an error", "error", err)
	} else {
		s.logger.Info("Sync cycle finished")
	}
}

// unitContext gives each refresh unit its own language loader, a fixed
// session on the app credential and a policy that forces fetching.
func (s *Syncer) unitContext(ctx context.Context, cred model.Credential) context.Context {
	ctx = loader.WithLanguages(ctx, loader.NewLanguages(s.q, s.loaderWait))
	ctx = tier.WithSession(ctx, tier.Fixed(tier.Access{Tier: model.TierMedium, Credential: cred}))
	return WithPolicy(ctx, Always())
}

// Unit prepares ctx for a refresh outside the periodic cycle, such as one
// requested from the command line.
func (s *Syncer) Unit(ctx context.Context) (context.Context, error) {
	cred, err := s.app.Credential(ctx)
	if err != nil {
		return nil, err
	}
	return s.unitContext(ctx, cred), nil
}

// RefreshOwner refreshes a user, or an organization when no user has the
// login, together with its repositories.
func (s *Syncer) RefreshOwner(ctx context.Context, login string) error {
	logger := s.logger.With("login", login)
	logger.Info("Refreshing account")

	user, err := s.service.User(ctx, login)
	switch {
	case err == nil:
		if _, err := s.service.OwnerRepositories(ctx, user, RepositoryFilter{}); err != nil {
			return err
		}
		_, err = s.service.StarredRepositories(ctx, *user)
		return err
	case !errors.Is(err, custom_errors.ErrNotFound):
		return err
	}

	org, err := s.service.Organization(ctx, login)
	if err != nil {
		return err
	}
	if _, err := s.service.OwnerRepositories(ctx, org, RepositoryFilter{}); err != nil {
		return err
	}
	if _, err := s.service.OrganizationMembers(ctx, *org); err != nil {
		var na *custom_errors.NotAuthorized
		if !errors.As(err, &na) {
			return err
		}
		logger.Debug("Skipping members", "error", err)
	}
	logger.Info("Refreshed organization")
	return nil
}

// RefreshRepository refreshes a repository and its languages, star count and
// stargazers.
func (s *Syncer) RefreshRepository(ctx context.Context, id RepoIdentifier) error {
	logger := s.logger.With("owner", id.Owner, "repo", id.Name)
	logger.Info("Syncing repository")

	repo, err := s.service.Repository(ctx, id.Owner, id.Name)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.service.RepositoryLanguages(gctx, *repo)
		return err
	})
	g.Go(func() error {
		stars, err := s.service.StarCount(gctx, *repo)
		if err == nil {
			logger.Info("Fetched star count", "stars", int(stars))
		}
		return err
	})
	g.Go(func() error {
		_, err := s.service.Stargazers(gctx, *repo)
		return err
	})
	return g.Wait()
}
