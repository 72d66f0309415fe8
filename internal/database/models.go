// internal/database/models.go
package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Language struct {
	ID    int64
	Name  string
	Color pgtype.Text
}

type Repository struct {
	ID              int64
	ExternalID      string
	OwnerID         int64
	Name            string
	FullName        string
	RepoCreatedAt   pgtype.Timestamptz
	RepoUpdatedAt   pgtype.Timestamptz
	IsLocked        bool
	IsArchived      bool
	IsDisabled      bool
	IsFork          bool
	IsTemplate      bool
	ForkCount       int32
	Description     pgtype.Text
	Url             string
	StarCount       int32
	PrimaryLanguage pgtype.Text
	DbCreatedAt     pgtype.Timestamptz
	DbUpdatedAt     pgtype.Timestamptz
}

type RepositoryLanguage struct {
	RepositoryID int64
	LanguageName string
	Position     int32
	Color        pgtype.Text
}

type RepositoryOwner struct {
	ID          int64
	ExternalID  string
	Kind        string
	Login       string
	AvatarUrl   string
	ProfileUrl  string
	Email       pgtype.Text
	Name        pgtype.Text
	Bio         pgtype.Text
	Description pgtype.Text
	WebsiteUrl  pgtype.Text
	DbCreatedAt pgtype.Timestamptz
	DbUpdatedAt pgtype.Timestamptz
}

type SyncMark struct {
	Subject  string
	Relation string
	SyncedAt pgtype.Timestamptz
}
