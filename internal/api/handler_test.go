// internal/api/handler_test.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/database"
	"catalog-sync/internal/database/databasetest"
	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/github"
	"catalog-sync/internal/model"
	"catalog-sync/internal/reconcile"
	"catalog-sync/internal/syncer"
	"catalog-sync/internal/tier"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	secret  = []byte("test-secret")
)

type nopQueue struct {
	mu   sync.Mutex
	jobs []reconcile.Job
}

func (q *nopQueue) Enqueue(_ context.Context, job reconcile.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeAccounts struct {
	accounts map[string]model.LocalAccount
}

func (f *fakeAccounts) Get(_ context.Context, id string) (*model.LocalAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, custom_errors.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAccounts) UpdateTier(context.Context, string, model.Tier) error { return nil }

type fixture struct {
	q      *databasetest.MockQuerier
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call to %s", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	gh := github.NewClient(github.Config{APIURL: upstream.URL + "/api/v3", GraphQLURL: upstream.URL + "/graphql"}, discard)
	q := new(databasetest.MockQuerier)
	accounts := &fakeAccounts{accounts: map[string]model.LocalAccount{
		"acc-1": {ID: "acc-1", Login: "octocat"},
	}}
	service := syncer.NewService(gh, q, reconcile.New(&nopQueue{}, discard), syncer.Config{Policy: syncer.TTL(time.Hour)}, discard)
	resolver := tier.NewResolver(gh, github.StaticCredential("app-token"), accounts, tier.Config{}, discard)

	router, err := NewRouter(Deps{
		Service:    service,
		Accounts:   accounts,
		Resolver:   resolver,
		Languages:  q,
		LoaderWait: time.Millisecond,
		Secret:     secret,
		Logger:     discard,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &fixture{q: q, server: srv}
}

type gqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func (f *fixture) query(t *testing.T, token, query string) (*http.Response, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/graphql", strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out gqlResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func freshMark(subject, relation string) database.SyncMark {
	return database.SyncMark{Subject: subject, Relation: relation, SyncedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true}}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestGraphQL_AnonymousCannotListMembers(t *testing.T) {
	f := newFixture(t)
	f.q.On("GetSyncMark", mock.Anything, database.GetSyncMarkParams{Subject: "org:octo", Relation: model.RelationSelf}).
		Return(freshMark("org:octo", model.RelationSelf), nil)
	f.q.On("GetOwnerByLogin", mock.Anything, "octo").
		Return(database.RepositoryOwner{ID: 1, ExternalID: "O_1", Kind: "organization", Login: "octo"}, nil)

	resp, out := f.query(t, "", `{ organization(login: "octo") { login members { login } } }`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	org, ok := out.Data["organization"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "octo", org["login"])
	assert.Nil(t, org["members"])

	require.Len(t, out.Errors, 1)
	assert.Equal(t, "FORBIDDEN", out.Errors[0].Extensions["code"])
	assert.Equal(t, []any{"organization", "members"}, out.Errors[0].Path)
	f.q.AssertNotCalled(t, "ListOrganizationMembers", mock.Anything, mock.Anything)
}

func TestGraphQL_ViewerNeedsSession(t *testing.T) {
	f := newFixture(t)

	resp, out := f.query(t, "", `{ viewer { login } }`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "UNAUTHENTICATED", out.Errors[0].Extensions["code"])
}

func TestGraphQL_ViewerFromCache(t *testing.T) {
	f := newFixture(t)
	f.q.On("GetSyncMark", mock.Anything, database.GetSyncMarkParams{Subject: "user:octocat", Relation: model.RelationSelf}).
		Return(freshMark("user:octocat", model.RelationSelf), nil)
	f.q.On("GetOwnerByLogin", mock.Anything, "octocat").
		Return(database.RepositoryOwner{
			ID:         2,
			ExternalID: "U_1",
			Kind:       "user",
			Login:      "octocat",
			Name:       pgtype.Text{String: "The Octocat", Valid: true},
		}, nil)

	token, err := IssueToken(secret, "acc-1", time.Minute)
	require.NoError(t, err)

	resp, out := f.query(t, "Bearer "+token, `{ viewer { id login name bio } }`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, out.Errors)
	viewer := out.Data["viewer"].(map[string]any)
	assert.Equal(t, "U_1", viewer["id"])
	assert.Equal(t, "The Octocat", viewer["name"])
	assert.Nil(t, viewer["bio"])
}

func TestSessionMiddleware_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)

	expired, err := IssueToken(secret, "acc-1", -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken([]byte("other-secret"), "acc-1", time.Minute)
	require.NoError(t, err)
	unknown, err := IssueToken(secret, "acc-404", time.Minute)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"garbage":         "Bearer not-a-token",
		"missing prefix":  forged,
		"expired":         "Bearer " + expired,
		"wrong secret":    "Bearer " + forged,
		"unknown account": "Bearer " + unknown,
	} {
		t.Run(name, func(t *testing.T) {
			resp, _ := f.query(t, header, `{ viewer { login } }`)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestGraphQL_RejectsEmptyQuery(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.query(t, "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
