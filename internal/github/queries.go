// internal/github/queries.go
package github

// Page sizes used against the GraphQL API.
const (
	repositoriesPageSize = 50
	nestedLanguagesSize  = 20
	defaultPageSize      = 100
)

// PageInfo is GitHub's connection cursor block.
type PageInfo struct {
	HasNextPage bool
	EndCursor   string
}

// AccountFields is the header shared by users and organizations.
type AccountFields struct {
	ID        string
	Login     string
	AvatarURL string
	URL       string
}

// UserNode is the raw user payload.
type UserNode struct {
	AccountFields
	Email string
	Name  *string
	Bio   *string
}

// OrganizationNode is the raw organization payload.
type OrganizationNode struct {
	AccountFields
	Email       *string
	Name        *string
	Description *string
	WebsiteURL  *string
}

// OwnerNode is a repository owner. Typename selects which fragment applies.
type OwnerNode struct {
	Typename string `graphql:"__typename"`
	AccountFields
}

// LanguageNode is the raw language payload.
type LanguageNode struct {
	Name  string
	Color *string
}

// RepositoryNode is the raw repository payload. Timestamps stay as strings
// until reconciliation so that a malformed row can be dropped on its own.
type RepositoryNode struct {
	ID              string
	Name            string
	NameWithOwner   string
	CreatedAt       *string
	UpdatedAt       *string
	IsLocked        bool
	IsArchived      bool
	IsDisabled      bool
	IsFork          bool
	IsTemplate      bool
	ForkCount       int
	Description     *string
	URL             string
	Owner           OwnerNode
	PrimaryLanguage *LanguageNode
}

// RepositoryPayload is a repository plus the languages fetched alongside it.
// Languages is nil when the query did not ask for them.
type RepositoryPayload struct {
	RepositoryNode
	Languages []LanguageNode
}

type repositoryWithLanguages struct {
	RepositoryNode
	Languages struct {
		Nodes []LanguageNode
	} `graphql:"languages(first: $languagesFirst, orderBy: {field: SIZE, direction: DESC})"`
}

func (r repositoryWithLanguages) payload() RepositoryPayload {
	langs := r.Languages.Nodes
	if langs == nil {
		langs = []LanguageNode{}
	}
	return RepositoryPayload{RepositoryNode: r.RepositoryNode, Languages: langs}
}

type viewerQuery struct {
	Viewer UserNode
}

type userQuery struct {
	User *UserNode `graphql:"user(login: $login)"`
}

type organizationQuery struct {
	Organization *OrganizationNode `graphql:"organization(login: $login)"`
}

type repositoryQuery struct {
	Repository *repositoryWithLanguages `graphql:"repository(owner: $owner, name: $name)"`
}

type starCountQuery struct {
	Repository *struct {
		StargazerCount int
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type ownerRepositoriesQuery struct {
	RepositoryOwner *struct {
		Repositories struct {
			Nodes    []repositoryWithLanguages
			PageInfo PageInfo
		} `graphql:"repositories(first: $first, after: $cursor, orderBy: {field: STARGAZERS, direction: DESC})"`
	} `graphql:"repositoryOwner(login: $login)"`
}

type starredRepositoriesQuery struct {
	User *struct {
		StarredRepositories struct {
			Nodes    []RepositoryNode
			PageInfo PageInfo
		} `graphql:"starredRepositories(first: $first, after: $cursor, orderBy: {field: STARRED_AT, direction: DESC})"`
	} `graphql:"user(login: $login)"`
}

type userOrganizationsQuery struct {
	User *struct {
		Organizations struct {
			Nodes    []OrganizationNode
			PageInfo PageInfo
		} `graphql:"organizations(first: $first, after: $cursor)"`
	} `graphql:"user(login: $login)"`
}

type organizationMembersQuery struct {
	Organization *struct {
		MembersWithRole struct {
			Nodes    []UserNode
			PageInfo PageInfo
		} `graphql:"membersWithRole(first: $first, after: $cursor)"`
	} `graphql:"organization(login: $login)"`
}

type repositoryLanguagesQuery struct {
	Repository *struct {
		Languages struct {
			Nodes    []LanguageNode
			PageInfo PageInfo
		} `graphql:"languages(first: $first, after: $cursor, orderBy: {field: SIZE, direction: DESC})"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type stargazersQuery struct {
	Repository *struct {
		Stargazers struct {
			Nodes    []UserNode
			PageInfo PageInfo
		} `graphql:"stargazers(first: $first, after: $cursor, orderBy: {field: STARRED_AT, direction: DESC})"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}
