// internal/reconcile/mapping.go
package reconcile

import (
	"log/slog"
	"time"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/github"
	"catalog-sync/internal/model"
)

func account(f github.AccountFields) model.Account {
	return model.Account{
		ExternalID: f.ID,
		Login:      f.Login,
		AvatarURL:  f.AvatarURL,
		ProfileURL: f.URL,
	}
}

func checkAccount(entity string, f github.AccountFields) error {
	switch {
	case f.ID == "":
		return &custom_errors.MalformedRecord{Entity: entity, ID: f.Login, Field: "id"}
	case f.Login == "":
		return &custom_errors.MalformedRecord{Entity: entity, ID: f.ID, Field: "login"}
	}
	return nil
}

// User maps a user payload.
func User(n github.UserNode) (*model.User, error) {
	if err := checkAccount("user", n.AccountFields); err != nil {
		return nil, err
	}
	return &model.User{
		Account: account(n.AccountFields),
		Email:   n.Email,
		Name:    n.Name,
		Bio:     n.Bio,
	}, nil
}

// Organization maps an organization payload.
func Organization(n github.OrganizationNode) (*model.Organization, error) {
	if err := checkAccount("organization", n.AccountFields); err != nil {
		return nil, err
	}
	return &model.Organization{
		Account:     account(n.AccountFields),
		Email:       n.Email,
		Name:        n.Name,
		Description: n.Description,
		WebsiteURL:  n.WebsiteURL,
	}, nil
}

// Owner maps a repository owner reference to the matching variant.
func Owner(n github.OwnerNode) (model.Owner, error) {
	if err := checkAccount("owner", n.AccountFields); err != nil {
		return nil, err
	}
	kind, err := model.ParseOwnerKind(n.Typename)
	if err != nil {
		return nil, &custom_errors.MalformedRecord{Entity: "owner", ID: n.ID, Field: "__typename"}
	}
	return model.NewOwner(kind, account(n.AccountFields))
}

// Language maps a language payload. A null color becomes "".
func Language(n github.LanguageNode) model.Language {
	lang := model.Language{Name: n.Name}
	if n.Color != nil {
		lang.Color = *n.Color
	}
	return lang
}

// Languages maps language payloads, dropping nameless entries. A nil input
// stays nil so "not fetched" is preserved.
func Languages(nodes []github.LanguageNode) []model.Language {
	if nodes == nil {
		return nil
	}
	out := make([]model.Language, 0, len(nodes))
	for _, n := range nodes {
		if n.Name == "" {
			continue
		}
		out = append(out, Language(n))
	}
	return out
}

func parseTimestamp(id, field string, value *string) (time.Time, error) {
	if value == nil || *value == "" {
		return time.Time{}, &custom_errors.MalformedRecord{Entity: "repository", ID: id, Field: field}
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return time.Time{}, &custom_errors.MalformedRecord{Entity: "repository", ID: id, Field: field}
	}
	return t, nil
}

// Repository maps a repository payload. The star count is left unknown: it
// is only ever set by a star count fetch.
func Repository(p github.RepositoryPayload) (model.Repository, error) {
	if p.ID == "" {
		return model.Repository{}, &custom_errors.MalformedRecord{Entity: "repository", ID: p.NameWithOwner, Field: "id"}
	}
	if p.Name == "" {
		return model.Repository{}, &custom_errors.MalformedRecord{Entity: "repository", ID: p.ID, Field: "name"}
	}
	createdAt, err := parseTimestamp(p.ID, "createdAt", p.CreatedAt)
	if err != nil {
		return model.Repository{}, err
	}
	updatedAt, err := parseTimestamp(p.ID, "updatedAt", p.UpdatedAt)
	if err != nil {
		return model.Repository{}, err
	}
	owner, err := Owner(p.Owner)
	if err != nil {
		return model.Repository{}, err
	}

	repo := model.Repository{
		ExternalID:  p.ID,
		Name:        p.Name,
		FullName:    p.NameWithOwner,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		IsLocked:    p.IsLocked,
		IsArchived:  p.IsArchived,
		IsDisabled:  p.IsDisabled,
		IsFork:      p.IsFork,
		IsTemplate:  p.IsTemplate,
		ForkCount:   p.ForkCount,
		Description: p.Description,
		URL:         p.URL,
		StarCount:   model.UnknownStars,
		Owner:       model.OwnerRef{Owner: owner},
		Languages:   Languages(p.Languages),
	}
	if repo.FullName == "" {
		repo.FullName = owner.Header().Login + "/" + p.Name
	}
	if p.PrimaryLanguage != nil && p.PrimaryLanguage.Name != "" {
		lang := Language(*p.PrimaryLanguage)
		repo.PrimaryLanguage = &lang
	}
	return repo, nil
}

// Repositories maps a batch, skipping malformed rows.
func Repositories(logger *slog.Logger, payloads []github.RepositoryPayload) []model.Repository {
	out := make([]model.Repository, 0, len(payloads))
	for _, p := range payloads {
		repo, err := Repository(p)
		if err != nil {
			logger.Debug("Skipping malformed repository", "error", err)
			continue
		}
		out = append(out, repo)
	}
	return out
}

// Users maps a batch, skipping malformed rows.
func Users(logger *slog.Logger, nodes []github.UserNode) []*model.User {
	out := make([]*model.User, 0, len(nodes))
	for _, n := range nodes {
		u, err := User(n)
		if err != nil {
			logger.Debug("Skipping malformed user", "error", err)
			continue
		}
		out = append(out, u)
	}
	return out
}

// Organizations maps a batch, skipping malformed rows.
func Organizations(logger *slog.Logger, nodes []github.OrganizationNode) []*model.Organization {
	out := make([]*model.Organization, 0, len(nodes))
	for _, n := range nodes {
		o, err := Organization(n)
		if err != nil {
			logger.Debug("Skipping malformed organization", "error", err)
			continue
		}
		out = append(out, o)
	}
	return out
}
