// internal/model/models.go
package model

import (
	"time"
)

// Account is the header shared by every repository owner.
type Account struct {
	ExternalID string `json:"external_id"`
	Login      string `json:"login"`
	AvatarURL  string `json:"avatar_url"`
	ProfileURL string `json:"profile_url"`
}

// User is the cached view of a GitHub user account.
type User struct {
	Account
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

// Organization is the cached view of a GitHub organization.
type Organization struct {
	Account
	Email       *string `json:"email,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	WebsiteURL  *string `json:"website_url,omitempty"`
}

// Language is keyed by Name. An empty Color means GitHub reported none.
type Language struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Repository represents the metadata of a GitHub repository.
type Repository struct {
	ExternalID      string     `json:"external_id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	IsLocked        bool       `json:"is_locked"`
	IsArchived      bool       `json:"is_archived"`
	IsDisabled      bool       `json:"is_disabled"`
	IsFork          bool       `json:"is_fork"`
	IsTemplate      bool       `json:"is_template"`
	ForkCount       int        `json:"fork_count"`
	Description     *string    `json:"description,omitempty"`
	URL             string     `json:"url"`
	StarCount       StarCount  `json:"star_count"`
	Owner           OwnerRef   `json:"owner"`
	PrimaryLanguage *Language  `json:"primary_language,omitempty"`
	// Languages is nil when the pass that produced this value did not fetch
	// languages; a non-nil empty slice means the repository has none.
	Languages []Language `json:"languages"`
}

// LocalAccount is the authenticated application user.
type LocalAccount struct {
	ID                      string  `json:"id"`
	Login                   string  `json:"login"`
	InstallationAccessToken string  `json:"-"`
	PersonalAccessToken     *string `json:"-"`
	AccessTier              Tier    `json:"access_tier"`
}

// Installation is one GitHub App installation visible to a user token.
type Installation struct {
	ID    int64
	AppID int64
}

// SyncMark records when a relation of a cached entity was last synchronized.
type SyncMark struct {
	Subject  string
	Relation string
	SyncedAt time.Time
}

// Relations tracked by sync marks.
const (
	RelationSelf         = "self"
	RelationRepositories = "repositories"
	RelationStarred      = "starred"
	RelationOrgs         = "organizations"
	RelationMembers      = "members"
	RelationLanguages    = "languages"
	RelationStarCount    = "star_count"
	RelationStargazers   = "stargazers"
)

// CredentialSource tells where an upstream bearer token came from.
type CredentialSource string

const (
	CredentialApp          CredentialSource = "app"
	CredentialInstallation CredentialSource = "installation"
	CredentialPersonal     CredentialSource = "personal"
)

// Credential is the single bearer token used for one upstream call.
type Credential struct {
	Token  string
	Source CredentialSource
}
