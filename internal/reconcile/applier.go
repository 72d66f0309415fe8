// internal/reconcile/applier.go
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"catalog-sync/internal/database"
	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
)

// Applier writes jobs to the cache, one transaction per job.
type Applier struct {
	tx     database.Transactor
	logger *slog.Logger
}

func NewApplier(tx database.Transactor, logger *slog.Logger) *Applier {
	return &Applier{tx: tx, logger: logger}
}

// Apply executes job. Identity-keyed rows are inserted or merged, languages
// are inserted or left alone, and relation sets are replaced wholesale.
func (a *Applier) Apply(ctx context.Context, job Job) error {
	err := a.tx.InTx(ctx, func(q database.Querier) error {
		w := &writer{q: q, owners: make(map[string]int64)}
		if err := w.apply(ctx, job); err != nil {
			return err
		}
		if mark := job.SyncMark(); mark != nil {
			return q.UpsertSyncMark(ctx, database.UpsertSyncMarkParams{
				Subject:  mark.Subject,
				Relation: mark.Relation,
				SyncedAt: timestamptz(mark.SyncedAt),
			})
		}
		return nil
	})
	if err != nil {
		return &custom_errors.CacheWriteFailure{Job: string(job.Kind()), Err: err}
	}
	return nil
}

// writer caches owner ids within one job so a shared owner is upserted once.
type writer struct {
	q      database.Querier
	owners map[string]int64
}

func (w *writer) apply(ctx context.Context, job Job) error {
	switch j := job.(type) {
	case *SaveOwners:
		for _, ref := range j.Owners {
			if _, err := w.saveOwner(ctx, ref.Owner); err != nil {
				return err
			}
		}
		return nil

	case *SaveRepositories:
		if err := w.ensureLanguages(ctx, j.EnsureLanguages); err != nil {
			return err
		}
		for _, repo := range j.Repositories {
			if _, err := w.saveRepository(ctx, repo); err != nil {
				return err
			}
		}
		return nil

	case *SaveRepositoryLanguages:
		if err := w.ensureLanguages(ctx, j.EnsureLanguages); err != nil {
			return err
		}
		repo := j.Repository
		repo.Languages = j.Languages
		if repo.Languages == nil {
			repo.Languages = []model.Language{}
		}
		_, err := w.saveRepository(ctx, repo)
		return err

	case *SaveStarCount:
		if _, err := w.saveRepository(ctx, withoutLanguages(j.Repository)); err != nil {
			return err
		}
		_, err := w.q.UpdateStarCount(ctx, database.UpdateStarCountParams{
			ExternalID: j.Repository.ExternalID,
			StarCount:  int32(j.Stars),
		})
		return err

	case *ReplaceStarred:
		if err := w.ensureLanguages(ctx, j.EnsureLanguages); err != nil {
			return err
		}
		userID, err := w.saveOwner(ctx, &j.User)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(j.Repositories))
		for _, repo := range j.Repositories {
			id, err := w.saveRepository(ctx, repo)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return w.q.ReplaceStarredRepositories(ctx, database.ReplaceStarredRepositoriesParams{UserID: userID, RepositoryIDs: ids})

	case *ReplaceStargazers:
		repoID, err := w.saveRepository(ctx, withoutLanguages(j.Repository))
		if err != nil {
			return err
		}
		ids, err := w.saveUsers(ctx, j.Users)
		if err != nil {
			return err
		}
		return w.q.ReplaceRepositoryStargazers(ctx, database.ReplaceRepositoryStargazersParams{RepositoryID: repoID, UserIDs: ids})

	case *ReplaceOrganizationMembers:
		orgID, err := w.saveOwner(ctx, &j.Organization)
		if err != nil {
			return err
		}
		ids, err := w.saveUsers(ctx, j.Members)
		if err != nil {
			return err
		}
		return w.q.ReplaceOrganizationMembers(ctx, database.ReplaceOrganizationMembersParams{OrganizationID: orgID, UserIDs: ids})

	case *ReplaceUserOrganizations:
		userID, err := w.saveOwner(ctx, &j.User)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(j.Organizations))
		for i := range j.Organizations {
			id, err := w.saveOwner(ctx, &j.Organizations[i])
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return w.q.ReplaceUserOrganizations(ctx, database.ReplaceUserOrganizationsParams{UserID: userID, OrganizationIDs: ids})

	case *MarkSynced:
		return nil

	default:
		return fmt.Errorf("unsupported job type %T", job)
	}
}

func (w *writer) ensureLanguages(ctx context.Context, langs []model.Language) error {
	if len(langs) == 0 {
		return nil
	}
	params := database.UpsertLanguagesParams{}
	index := make(map[string]int)
	for _, lang := range langs {
		if i, ok := index[lang.Name]; ok {
			if params.Colors[i] == "" {
				params.Colors[i] = lang.Color
			}
			continue
		}
		index[lang.Name] = len(params.Names)
		params.Names = append(params.Names, lang.Name)
		params.Colors = append(params.Colors, lang.Color)
	}
	_, err := w.q.UpsertLanguages(ctx, params)
	return err
}

// saveOwner writes the full owner record.
func (w *writer) saveOwner(ctx context.Context, owner model.Owner) (int64, error) {
	var params database.UpsertOwnerParams
	switch o := owner.(type) {
	case *model.User:
		params = database.UpsertOwnerParams{
			Email: text(&o.Email),
			Name:  text(o.Name),
			Bio:   text(o.Bio),
		}
	case *model.Organization:
		params = database.UpsertOwnerParams{
			Email:       text(o.Email),
			Name:        text(o.Name),
			Description: text(o.Description),
			WebsiteUrl:  text(o.WebsiteURL),
		}
	default:
		return 0, fmt.Errorf("unsupported owner type %T", owner)
	}
	h := owner.Header()
	params.ExternalID = h.ExternalID
	params.Kind = string(owner.Kind())
	params.Login = h.Login
	params.AvatarUrl = h.AvatarURL
	params.ProfileUrl = h.ProfileURL

	row, err := w.q.UpsertOwner(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("upsert owner %s: %w", h.Login, err)
	}
	w.owners[h.ExternalID] = row.ID
	return row.ID, nil
}

// saveOwnerHeader writes only the shared owner columns, for owners seen as
// a reference from another entity.
func (w *writer) saveOwnerHeader(ctx context.Context, owner model.Owner) (int64, error) {
	if owner == nil {
		return 0, fmt.Errorf("repository has no owner")
	}
	h := owner.Header()
	if id, ok := w.owners[h.ExternalID]; ok {
		return id, nil
	}
	row, err := w.q.UpsertOwnerHeader(ctx, database.UpsertOwnerHeaderParams{
		ExternalID: h.ExternalID,
		Kind:       string(owner.Kind()),
		Login:      h.Login,
		AvatarUrl:  h.AvatarURL,
		ProfileUrl: h.ProfileURL,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert owner %s: %w", h.Login, err)
	}
	w.owners[h.ExternalID] = row.ID
	return row.ID, nil
}

func (w *writer) saveUsers(ctx context.Context, users []model.User) ([]int64, error) {
	ids := make([]int64, 0, len(users))
	for i := range users {
		id, err := w.saveOwner(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// withoutLanguages drops the language set so writes for other relations of
// repo leave the languages relation alone.
func withoutLanguages(repo model.Repository) model.Repository {
	repo.Languages = nil
	return repo
}

// saveRepository upserts the repository and, when its languages were
// fetched, replaces its language set.
func (w *writer) saveRepository(ctx context.Context, repo model.Repository) (int64, error) {
	ownerID, err := w.saveOwnerHeader(ctx, repo.Owner.Owner)
	if err != nil {
		return 0, err
	}

	params := database.UpsertRepositoryParams{
		ExternalID:    repo.ExternalID,
		OwnerID:       ownerID,
		Name:          repo.Name,
		FullName:      repo.FullName,
		RepoCreatedAt: timestamptz(repo.CreatedAt),
		RepoUpdatedAt: timestamptz(repo.UpdatedAt),
		IsLocked:      repo.IsLocked,
		IsArchived:    repo.IsArchived,
		IsDisabled:    repo.IsDisabled,
		IsFork:        repo.IsFork,
		IsTemplate:    repo.IsTemplate,
		ForkCount:     int32(repo.ForkCount),
		Description:   text(repo.Description),
		Url:           repo.URL,
	}
	if repo.PrimaryLanguage != nil {
		params.PrimaryLanguage = pgtype.Text{String: repo.PrimaryLanguage.Name, Valid: true}
	}
	row, err := w.q.UpsertRepository(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("upsert repository %s: %w", repo.FullName, err)
	}

	if repo.Languages != nil {
		names := make([]string, 0, len(repo.Languages))
		seen := make(map[string]struct{}, len(repo.Languages))
		for _, lang := range repo.Languages {
			if _, ok := seen[lang.Name]; ok {
				continue
			}
			seen[lang.Name] = struct{}{}
			names = append(names, lang.Name)
		}
		if err := w.q.ReplaceRepositoryLanguages(ctx, database.ReplaceRepositoryLanguagesParams{RepositoryID: row.ID, Names: names}); err != nil {
			return 0, fmt.Errorf("replace languages of %s: %w", repo.FullName, err)
		}
	}
	return row.ID, nil
}
