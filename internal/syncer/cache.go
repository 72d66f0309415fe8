// internal/syncer/cache.go
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"catalog-sync/internal/database"
	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
	"catalog-sync/internal/reconcile"
)

// mark returns the sync mark of a relation, or nil when it was never
// synchronized or cannot be read.
func (s *Service) mark(ctx context.Context, subject, relation string) *model.SyncMark {
	row, err := s.q.GetSyncMark(ctx, database.GetSyncMarkParams{Subject: subject, Relation: relation})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Warn("Failed to read sync mark, treating as stale", "subject", subject, "relation", relation, "error", err)
		return nil
	}
	return &model.SyncMark{Subject: row.Subject, Relation: row.Relation, SyncedAt: row.SyncedAt.Time}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, custom_errors.ErrNotFound)...)
	}
	return err
}

func (s *Service) cachedOwner(ctx context.Context, login string, kind model.OwnerKind) (model.Owner, database.RepositoryOwner, error) {
	row, err := s.q.GetOwnerByLogin(ctx, login)
	if err != nil {
		return nil, row, notFound(err, "cached %s %s", kind, login)
	}
	owner, err := reconcile.OwnerFromRow(row)
	if err != nil {
		return nil, row, err
	}
	if owner.Kind() != kind {
		return nil, row, fmt.Errorf("cached %s %s: %w", kind, login, custom_errors.ErrNotFound)
	}
	return owner, row, nil
}

func (s *Service) cachedRepository(ctx context.Context, id RepoIdentifier) (model.Repository, database.Repository, error) {
	row, err := s.q.GetRepositoryByFullName(ctx, id.String())
	if err != nil {
		return model.Repository{}, row, notFound(err, "cached repository %s", id)
	}
	repos, err := s.hydrate(ctx, []database.Repository{row}, true)
	if err != nil {
		return model.Repository{}, row, err
	}
	return repos[0], row, nil
}

// hydrate rebuilds cached repositories with their owners and, when
// withLanguages is set, their language sets.
func (s *Service) hydrate(ctx context.Context, rows []database.Repository, withLanguages bool) ([]model.Repository, error) {
	if len(rows) == 0 {
		return []model.Repository{}, nil
	}

	ownerIDs := make([]int64, 0, len(rows))
	repoIDs := make([]int64, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		repoIDs = append(repoIDs, row.ID)
		if _, ok := seen[row.OwnerID]; !ok {
			seen[row.OwnerID] = struct{}{}
			ownerIDs = append(ownerIDs, row.OwnerID)
		}
	}

	ownerRows, err := s.q.GetOwnersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("load repository owners: %w", err)
	}
	owners := make(map[int64]model.Owner, len(ownerRows))
	for _, row := range ownerRows {
		owner, err := reconcile.OwnerFromRow(row)
		if err != nil {
			return nil, err
		}
		owners[row.ID] = owner
	}

	colors := make(map[string]string)
	var langs map[int64][]model.Language
	if withLanguages {
		langRows, err := s.q.ListRepositoryLanguages(ctx, repoIDs)
		if err != nil {
			return nil, fmt.Errorf("load repository languages: %w", err)
		}
		langs = make(map[int64][]model.Language, len(rows))
		for _, lr := range langRows {
			lang := model.Language{Name: lr.LanguageName, Color: lr.Color.String}
			colors[lang.Name] = lang.Color
			langs[lr.RepositoryID] = append(langs[lr.RepositoryID], lang)
		}
	}

	out := make([]model.Repository, 0, len(rows))
	for _, row := range rows {
		owner, ok := owners[row.OwnerID]
		if !ok {
			return nil, fmt.Errorf("repository %s: owner %d missing from cache", row.FullName, row.OwnerID)
		}
		var primary *model.Language
		if row.PrimaryLanguage.Valid {
			primary = &model.Language{Name: row.PrimaryLanguage.String, Color: colors[row.PrimaryLanguage.String]}
		}
		var repoLangs []model.Language
		if withLanguages {
			repoLangs = langs[row.ID]
			if repoLangs == nil {
				repoLangs = []model.Language{}
			}
		}
		out = append(out, reconcile.RepositoryFromRow(row, owner, primary, repoLangs))
	}
	return out, nil
}

func usersFromRows(rows []database.RepositoryOwner) ([]*model.User, error) {
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		owner, err := reconcile.OwnerFromRow(row)
		if err != nil {
			return nil, err
		}
		if u, ok := owner.(*model.User); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func organizationsFromRows(rows []database.RepositoryOwner) ([]*model.Organization, error) {
	orgs := make([]*model.Organization, 0, len(rows))
	for _, row := range rows {
		owner, err := reconcile.OwnerFromRow(row)
		if err != nil {
			return nil, err
		}
		if o, ok := owner.(*model.Organization); ok {
			orgs = append(orgs, o)
		}
	}
	return orgs, nil
}
