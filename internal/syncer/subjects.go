// internal/syncer/subjects.go
package syncer

import (
	"strings"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
)

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

func (r RepoIdentifier) String() string { return r.Owner + "/" + r.Name }

// ParseRepoIdentifier splits an "owner/name" string.
func ParseRepoIdentifier(s string) (RepoIdentifier, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoIdentifier{}, &custom_errors.ErrInvalidRepoFormat{Repo: s}
	}
	return RepoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}

func parseRepoIdentifiers(repos []string) ([]RepoIdentifier, error) {
	var identifiers []RepoIdentifier
	for _, r := range repos {
		id, err := ParseRepoIdentifier(r)
		if err != nil {
			return nil, err
		}
		identifiers = append(identifiers, id)
	}
	return identifiers, nil
}

// Sync mark subjects are case-insensitive, like GitHub logins.
func userSubject(login string) string { return "user:" + strings.ToLower(login) }
func orgSubject(login string) string  { return "org:" + strings.ToLower(login) }
func repoSubject(id RepoIdentifier) string {
	return "repo:" + strings.ToLower(id.String())
}

func ownerSubject(owner model.Owner) string {
	h := owner.Header()
	if owner.Kind() == model.OwnerOrganization {
		return orgSubject(h.Login)
	}
	return userSubject(h.Login)
}

func repoIdentifier(repo model.Repository) (RepoIdentifier, error) {
	return ParseRepoIdentifier(repo.FullName)
}
