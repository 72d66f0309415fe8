// internal/reconcile/jobs.go
package reconcile

import (
	"encoding/json"
	"fmt"

	"catalog-sync/internal/model"
)

// Kind names a cache write job.
type Kind string

const (
	KindSaveOwners                 Kind = "save_owners"
	KindSaveRepositories           Kind = "save_repositories"
	KindSaveRepositoryLanguages    Kind = "save_repository_languages"
	KindSaveStarCount              Kind = "save_star_count"
	KindReplaceStarred             Kind = "replace_starred"
	KindReplaceStargazers          Kind = "replace_stargazers"
	KindReplaceOrganizationMembers Kind = "replace_organization_members"
	KindReplaceUserOrganizations   Kind = "replace_user_organizations"
	KindMarkSynced                 Kind = "mark_synced"
)

// Job is one unit of cache writes, applied in a single transaction. Jobs
// carry every entity they link to, so they can be applied in any order.
type Job interface {
	Kind() Kind
	SyncMark() *model.SyncMark
}

// Marked is embedded by jobs that close a synchronization pass.
type Marked struct {
	Mark *model.SyncMark `json:"mark,omitempty"`
}

func (m Marked) SyncMark() *model.SyncMark { return m.Mark }

type SaveOwners struct {
	Marked
	Owners []model.OwnerRef `json:"owners"`
}

type SaveRepositories struct {
	Marked
	Repositories []model.Repository `json:"repositories"`
	// EnsureLanguages is set when the languages could not be resolved before
	// enqueueing, so the worker must create them first.
	EnsureLanguages []model.Language `json:"ensure_languages,omitempty"`
}

type SaveRepositoryLanguages struct {
	Marked
	Repository      model.Repository `json:"repository"`
	Languages       []model.Language `json:"languages"`
	EnsureLanguages []model.Language `json:"ensure_languages,omitempty"`
}

type SaveStarCount struct {
	Marked
	Repository model.Repository `json:"repository"`
	Stars      int              `json:"stars"`
}

type ReplaceStarred struct {
	Marked
	User            model.User         `json:"user"`
	Repositories    []model.Repository `json:"repositories"`
	EnsureLanguages []model.Language   `json:"ensure_languages,omitempty"`
}

type ReplaceStargazers struct {
	Marked
	Repository model.Repository `json:"repository"`
	Users      []model.User     `json:"users"`
}

type ReplaceOrganizationMembers struct {
	Marked
	Organization model.Organization `json:"organization"`
	Members      []model.User       `json:"members"`
}

type ReplaceUserOrganizations struct {
	Marked
	User          model.User           `json:"user"`
	Organizations []model.Organization `json:"organizations"`
}

type MarkSynced struct {
	Marked
}

func (SaveOwners) Kind() Kind                 { return KindSaveOwners }
func (SaveRepositories) Kind() Kind           { return KindSaveRepositories }
func (SaveRepositoryLanguages) Kind() Kind    { return KindSaveRepositoryLanguages }
func (SaveStarCount) Kind() Kind              { return KindSaveStarCount }
func (ReplaceStarred) Kind() Kind             { return KindReplaceStarred }
func (ReplaceStargazers) Kind() Kind          { return KindReplaceStargazers }
func (ReplaceOrganizationMembers) Kind() Kind { return KindReplaceOrganizationMembers }
func (ReplaceUserOrganizations) Kind() Kind   { return KindReplaceUserOrganizations }
func (MarkSynced) Kind() Kind                 { return KindMarkSynced }

type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Encode serializes a job with its kind so Decode can restore the type.
func Encode(job Job) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode %s job: %w", job.Kind(), err)
	}
	return json.Marshal(envelope{Kind: job.Kind(), Payload: payload})
}

// Decode restores a job produced by Encode.
func Decode(data []byte) (Job, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode job envelope: %w", err)
	}

	var job Job
	switch env.Kind {
	case KindSaveOwners:
		job = &SaveOwners{}
	case KindSaveRepositories:
		job = &SaveRepositories{}
	case KindSaveRepositoryLanguages:
		job = &SaveRepositoryLanguages{}
	case KindSaveStarCount:
		job = &SaveStarCount{}
	case KindReplaceStarred:
		job = &ReplaceStarred{}
	case KindReplaceStargazers:
		job = &ReplaceStargazers{}
	case KindReplaceOrganizationMembers:
		job = &ReplaceOrganizationMembers{}
	case KindReplaceUserOrganizations:
		job = &ReplaceUserOrganizations{}
	case KindMarkSynced:
		job = &MarkSynced{}
	default:
		return nil, fmt.Errorf("unknown job kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return nil, fmt.Errorf("decode %s job: %w", env.Kind, err)
	}
	return job, nil
}
