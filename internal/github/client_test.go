// internal/github/client_test.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
)

var testCred = model.Credential{Token: "tok", Source: model.CredentialPersonal}

// setupTestClient creates a httptest server and a github client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewClient(Config{
		APIURL:     server.URL,
		GraphQLURL: server.URL + "/graphql",
		Transport:  server.Client().Transport,
	}, logger)
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func graphqlHandler(t *testing.T, status int, body string, inspect func(graphqlRequest)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func TestClient_Organization(t *testing.T) {
	t.Run("decodes organization", func(t *testing.T) {
		client := setupTestClient(t, graphqlHandler(t, http.StatusOK,
			`{"data":{"organization":{"id":"O_1","login":"octo","avatarUrl":"https://a","url":"https://github.com/octo","email":null,"name":"Octo","description":null,"websiteUrl":null}}}`,
			func(req graphqlRequest) {
				assert.Contains(t, req.Query, "organization(login: $login)")
				assert.Equal(t, "octo", req.Variables["login"])
			}))

		org, err := client.Organization(context.Background(), testCred, "octo")
		require.NoError(t, err)
		assert.Equal(t, "O_1", org.ID)
		assert.Equal(t, "Octo", *org.Name)
		assert.Nil(t, org.Email)
		assert.Equal(t, int64(1), client.Calls())
	})

	t.Run("keeps partial data", func(t *testing.T) {
		client := setupTestClient(t, graphqlHandler(t, http.StatusOK,
			`{"data":{"organization":{"id":"O_1","login":"octo","avatarUrl":"","url":"","email":null,"name":null,"description":null,"websiteUrl":null}},"errors":[{"message":"Resource not accessible by integration"}]}`,
			nil))

		var q organizationQuery
		err := client.Query(context.Background(), "organization", testCred, &q, map[string]any{"login": githubv4.String("octo")})
		var ue *custom_errors.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.True(t, ue.Partial)
		assert.Equal(t, http.StatusOK, ue.Status)
		assert.ErrorIs(t, err, custom_errors.ErrIntegrationNotInstalled)
		require.NotNil(t, q.Organization)
		assert.Equal(t, "octo", q.Organization.Login)

		org, err := client.Organization(context.Background(), testCred, "octo")
		require.NoError(t, err)
		assert.Equal(t, "O_1", org.ID)
	})

	t.Run("integration not installed", func(t *testing.T) {
		client := setupTestClient(t, graphqlHandler(t, http.StatusOK,
			`{"data":{"organization":null},"errors":[{"message":"Resource not accessible by integration"}]}`, nil))

		_, err := client.Organization(context.Background(), testCred, "octo")
		assert.ErrorIs(t, err, custom_errors.ErrIntegrationNotInstalled)
		assert.Contains(t, err.Error(), "not installed")
	})

	t.Run("not found", func(t *testing.T) {
		client := setupTestClient(t, graphqlHandler(t, http.StatusOK, `{"data":{"organization":null}}`, nil))

		_, err := client.Organization(context.Background(), testCred, "ghost")
		assert.ErrorIs(t, err, custom_errors.ErrNotFound)
	})

	t.Run("server error is retryable", func(t *testing.T) {
		client := setupTestClient(t, graphqlHandler(t, http.StatusBadGateway, `bad gateway`, nil))

		_, err := client.Organization(context.Background(), testCred, "octo")
		var ue *custom_errors.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, http.StatusBadGateway, ue.Status)
		assert.False(t, ue.Partial)
		assert.True(t, ue.Retryable())
	})
}

func TestClient_OwnerRepositoriesPage(t *testing.T) {
	body := `{"data":{"repositoryOwner":{"repositories":{"nodes":[{
		"id":"R_1","name":"tpl","nameWithOwner":"octo/tpl","createdAt":"2024-01-02T03:04:05Z","updatedAt":"2024-02-02T03:04:05Z",
		"isLocked":false,"isArchived":false,"isDisabled":false,"isFork":false,"isTemplate":true,"forkCount":3,
		"description":null,"url":"https://github.com/octo/tpl",
		"owner":{"__typename":"Organization","id":"O_1","login":"octo","avatarUrl":"","url":""},
		"primaryLanguage":{"name":"Go","color":"#00ADD8"},
		"languages":{"nodes":[{"name":"Go","color":"#00ADD8"},{"name":"Shell","color":null}]}
	}],"pageInfo":{"hasNextPage":true,"endCursor":"Y3Vyc29yOjE="}}}}}`

	var seen []graphqlRequest
	client := setupTestClient(t, graphqlHandler(t, http.StatusOK, body, func(req graphqlRequest) {
		seen = append(seen, req)
	}))

	cursor := "abc"
	page, err := client.OwnerRepositoriesPage(context.Background(), testCred, "octo", &cursor)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "abc", seen[0].Variables["cursor"])
	assert.EqualValues(t, repositoriesPageSize, seen[0].Variables["first"])
	assert.EqualValues(t, nestedLanguagesSize, seen[0].Variables["languagesFirst"])

	require.Len(t, page.Nodes, 1)
	repo := page.Nodes[0]
	assert.Equal(t, "octo/tpl", repo.NameWithOwner)
	assert.Equal(t, "Organization", repo.Owner.Typename)
	assert.True(t, repo.IsTemplate)
	require.Len(t, repo.Languages, 2)
	assert.Nil(t, repo.Languages[1].Color)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "Y3Vyc29yOjE=", page.EndCursor)
}

func TestClient_TokenScopes(t *testing.T) {
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/user", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("X-OAuth-Scopes", "read:org, read:user,repo")
		fmt.Fprint(w, `{"login":"octocat"}`)
	}))

	scopes, err := client.TokenScopes(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, []string{"read:org", "read:user", "repo"}, scopes)
}

func TestClient_TokenScopes_Unauthorized(t *testing.T) {
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))

	_, err := client.TokenScopes(context.Background(), testCred)
	var ue *custom_errors.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
	assert.Equal(t, "Bad credentials", ue.Message)
}

func TestClient_UserInstallations(t *testing.T) {
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/user/installations", r.URL.Path)
		fmt.Fprint(w, `{"total_count":2,"installations":[{"id":1,"app_id":7},{"id":2,"app_id":42}]}`)
	}))

	page, err := client.UserInstallations(context.Background(), testCred, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Installation{{ID: 1, AppID: 7}, {ID: 2, AppID: 42}}, page.Nodes)
	assert.False(t, page.HasNextPage)
}

func TestClient_AnonymousCallSendsNoAuthorization(t *testing.T) {
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data":{"repository":{"stargazerCount":42}}}`)
	}))

	stars, err := client.StarCount(context.Background(), model.Credential{}, "octo", "tpl")
	require.NoError(t, err)
	assert.Equal(t, 42, stars)
}
