// internal/reconcile/rows.go
package reconcile

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"catalog-sync/internal/database"
	"catalog-sync/internal/model"
)

func text(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

// OwnerFromRow restores the owner variant stored in row.
func OwnerFromRow(row database.RepositoryOwner) (model.Owner, error) {
	kind, err := model.ParseOwnerKind(row.Kind)
	if err != nil {
		return nil, err
	}
	header := model.Account{
		ExternalID: row.ExternalID,
		Login:      row.Login,
		AvatarURL:  row.AvatarUrl,
		ProfileURL: row.ProfileUrl,
	}
	switch kind {
	case model.OwnerUser:
		return &model.User{
			Account: header,
			Email:   row.Email.String,
			Name:    textPtr(row.Name),
			Bio:     textPtr(row.Bio),
		}, nil
	case model.OwnerOrganization:
		return &model.Organization{
			Account:     header,
			Email:       textPtr(row.Email),
			Name:        textPtr(row.Name),
			Description: textPtr(row.Description),
			WebsiteURL:  textPtr(row.WebsiteUrl),
		}, nil
	default:
		return model.NewOwner(kind, header)
	}
}

// RepositoryFromRow rebuilds a cached repository. langs may be nil when the
// language set was not loaded.
func RepositoryFromRow(row database.Repository, owner model.Owner, primary *model.Language, langs []model.Language) model.Repository {
	return model.Repository{
		ExternalID:      row.ExternalID,
		Name:            row.Name,
		FullName:        row.FullName,
		CreatedAt:       row.RepoCreatedAt.Time,
		UpdatedAt:       row.RepoUpdatedAt.Time,
		IsLocked:        row.IsLocked,
		IsArchived:      row.IsArchived,
		IsDisabled:      row.IsDisabled,
		IsFork:          row.IsFork,
		IsTemplate:      row.IsTemplate,
		ForkCount:       int(row.ForkCount),
		Description:     textPtr(row.Description),
		URL:             row.Url,
		StarCount:       model.StarCount(row.StarCount),
		Owner:           model.OwnerRef{Owner: owner},
		PrimaryLanguage: primary,
		Languages:       langs,
	}
}
