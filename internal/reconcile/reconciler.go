// internal/reconcile/reconciler.go
package reconcile

import (
	"context"
	"log/slog"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/loader"
	"catalog-sync/internal/model"
)

// Enqueuer accepts cache write jobs for asynchronous application.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Reconciler turns freshly fetched entities into cache write jobs. Its
// methods never fail: a write that cannot be queued is logged and dropped,
// since the caller already holds the data it asked for.
type Reconciler struct {
	queue  Enqueuer
	logger *slog.Logger
}

func New(queue Enqueuer, logger *slog.Logger) *Reconciler {
	return &Reconciler{queue: queue, logger: logger}
}

func (r *Reconciler) enqueue(ctx context.Context, job Job) {
	if err := r.queue.Enqueue(ctx, job); err != nil {
		r.logger.Error("Failed to queue cache write", "error", &custom_errors.CacheWriteFailure{Job: string(job.Kind()), Err: err})
	}
}

// resolveLanguages finds or creates langs through the request's loader and
// returns their stored forms by name. When that is not possible the second
// result lists the languages the write job has to create itself.
func (r *Reconciler) resolveLanguages(ctx context.Context, langs []model.Language) (map[string]model.Language, []model.Language) {
	if len(langs) == 0 {
		return nil, nil
	}
	l := loader.LanguagesFrom(ctx)
	if l == nil {
		return nil, langs
	}
	stored, err := l.LoadMany(ctx, langs)
	if err != nil {
		r.logger.Warn("Language upsert failed, deferring to cache writer", "count", len(langs), "error", err)
		return nil, langs
	}
	byName := make(map[string]model.Language, len(stored))
	for _, lang := range stored {
		byName[lang.Name] = lang
	}
	return byName, nil
}

// canonical rewrites language references to their stored forms.
func canonical(repos []model.Repository, byName map[string]model.Language) []model.Repository {
	if byName == nil {
		return repos
	}
	out := make([]model.Repository, len(repos))
	for i, repo := range repos {
		if repo.PrimaryLanguage != nil {
			if lang, ok := byName[repo.PrimaryLanguage.Name]; ok {
				repo.PrimaryLanguage = &lang
			}
		}
		repo.Languages = canonicalLanguages(repo.Languages, byName)
		out[i] = repo
	}
	return out
}

func canonicalLanguages(langs []model.Language, byName map[string]model.Language) []model.Language {
	if langs == nil || byName == nil {
		return langs
	}
	out := make([]model.Language, len(langs))
	for i, lang := range langs {
		if stored, ok := byName[lang.Name]; ok {
			lang = stored
		}
		out[i] = lang
	}
	return out
}

// SaveOwners caches users and organizations with their details.
func (r *Reconciler) SaveOwners(ctx context.Context, mark *model.SyncMark, owners ...model.Owner) {
	refs := make([]model.OwnerRef, 0, len(owners))
	for _, o := range owners {
		if o != nil {
			refs = append(refs, model.OwnerRef{Owner: o})
		}
	}
	r.enqueue(ctx, &SaveOwners{Marked: Marked{mark}, Owners: refs})
}

// SaveRepositories caches repositories, their owners and, where fetched,
// their language sets. It returns repos with stored language colors.
func (r *Reconciler) SaveRepositories(ctx context.Context, repos []model.Repository, mark *model.SyncMark) []model.Repository {
	byName, ensure := r.resolveLanguages(ctx, repositoryLanguages(repos))
	repos = canonical(repos, byName)
	r.enqueue(ctx, &SaveRepositories{Marked: Marked{mark}, Repositories: repos, EnsureLanguages: ensure})
	return repos
}

// SaveRepositoryLanguages replaces a repository's language set.
func (r *Reconciler) SaveRepositoryLanguages(ctx context.Context, repo model.Repository, langs []model.Language, mark *model.SyncMark) []model.Language {
	all := DedupLanguages(langs)
	if repo.PrimaryLanguage != nil {
		all = DedupLanguages([]model.Language{*repo.PrimaryLanguage}, all)
	}
	byName, ensure := r.resolveLanguages(ctx, all)
	langs = canonicalLanguages(langs, byName)
	repo.Languages = langs
	r.enqueue(ctx, &SaveRepositoryLanguages{
		Marked:          Marked{mark},
		Repository:      canonical([]model.Repository{repo}, byName)[0],
		Languages:       langs,
		EnsureLanguages: ensure,
	})
	return langs
}

// SaveStarCount records a successfully fetched star count.
func (r *Reconciler) SaveStarCount(ctx context.Context, repo model.Repository, stars int, mark *model.SyncMark) {
	repo.StarCount = model.StarCount(stars)
	r.enqueue(ctx, &SaveStarCount{Marked: Marked{mark}, Repository: repo, Stars: stars})
}

// ReplaceStarred replaces a user's starred repositories.
func (r *Reconciler) ReplaceStarred(ctx context.Context, user model.User, repos []model.Repository, mark *model.SyncMark) []model.Repository {
	byName, ensure := r.resolveLanguages(ctx, repositoryLanguages(repos))
	repos = canonical(repos, byName)
	r.enqueue(ctx, &ReplaceStarred{Marked: Marked{mark}, User: user, Repositories: repos, EnsureLanguages: ensure})
	return repos
}

// ReplaceStargazers replaces a repository's stargazers.
func (r *Reconciler) ReplaceStargazers(ctx context.Context, repo model.Repository, users []*model.User, mark *model.SyncMark) {
	r.enqueue(ctx, &ReplaceStargazers{Marked: Marked{mark}, Repository: repo, Users: derefUsers(users)})
}

// ReplaceOrganizationMembers replaces an organization's member set.
func (r *Reconciler) ReplaceOrganizationMembers(ctx context.Context, org model.Organization, members []*model.User, mark *model.SyncMark) {
	r.enqueue(ctx, &ReplaceOrganizationMembers{Marked: Marked{mark}, Organization: org, Members: derefUsers(members)})
}

// ReplaceUserOrganizations replaces the set of organizations a user belongs to.
func (r *Reconciler) ReplaceUserOrganizations(ctx context.Context, user model.User, orgs []*model.Organization, mark *model.SyncMark) {
	out := make([]model.Organization, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, *o)
	}
	r.enqueue(ctx, &ReplaceUserOrganizations{Marked: Marked{mark}, User: user, Organizations: out})
}

// Mark records a completed synchronization without other writes.
func (r *Reconciler) Mark(ctx context.Context, mark model.SyncMark) {
	r.enqueue(ctx, &MarkSynced{Marked: Marked{&mark}})
}

func derefUsers(users []*model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u)
	}
	return out
}
