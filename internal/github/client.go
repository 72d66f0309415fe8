// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
	"catalog-sync/internal/paginate"
)

const (
	defaultGraphQLURL = "https://api.github.com/graphql"

	notAccessibleByIntegration = "Resource not accessible by integration"
)

// Config describes how to reach GitHub.
type Config struct {
	// APIURL is the REST base URL. Empty means api.github.com.
	APIURL string
	// GraphQLURL defaults to the endpoint derived from APIURL.
	GraphQLURL string
	RPS        float64
	Burst      int
	// Transport is the shared connection pool. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client issues GraphQL and REST calls to GitHub. It holds no credential:
// each call is made with the one passed to it.
type Client struct {
	apiURL     string
	graphqlURL string
	base       http.RoundTripper
	limiter    *RateLimiter
	logger     *slog.Logger
	calls      atomic.Int64
}

// NewClient creates and configures a new Client instance.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		apiURL:     cfg.APIURL,
		graphqlURL: graphQLEndpoint(cfg.APIURL, cfg.GraphQLURL),
		base:       base,
		limiter:    NewRateLimiter(cfg.RPS, cfg.Burst),
		logger:     logger,
	}
}

// Calls returns how many HTTP requests have been sent upstream.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

func graphQLEndpoint(apiURL, graphqlURL string) string {
	if graphqlURL != "" {
		return graphqlURL
	}
	if apiURL == "" {
		return defaultGraphQLURL
	}
	url := strings.TrimSuffix(apiURL, "/")
	url = strings.TrimSuffix(url, "/api/v3")
	return url + "/api/graphql"
}

// Query runs a typed GraphQL query. When GitHub answers 2xx with an errors
// array, q still holds the data that was returned and the error is an
// *UpstreamError with Partial set.
func (c *Client) Query(ctx context.Context, operation string, cred model.Credential, q any, vars map[string]any) error {
	hc, rec := c.httpClient(cred)
	err := githubv4.NewEnterpriseClient(c.graphqlURL, hc).Query(ctx, q, vars)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return classify(operation, rec.status, err)
}

func classify(operation string, status int, err error) error {
	ue := &custom_errors.UpstreamError{
		Operation: operation,
		Status:    status,
		Message:   err.Error(),
		Err:       err,
	}
	if status >= 200 && status < 300 {
		ue.Partial = true
	}
	if strings.Contains(ue.Message, notAccessibleByIntegration) {
		ue.Message = custom_errors.ErrIntegrationNotInstalled.Error()
		ue.Err = custom_errors.ErrIntegrationNotInstalled
	}
	return ue
}

// accept keeps partial GraphQL data when the object the caller needs was
// returned, logging the errors that came with it.
func (c *Client) accept(operation string, err error, present bool) error {
	if err == nil {
		return nil
	}
	if present && custom_errors.IsPartial(err) {
		c.logger.Warn("Using partial GitHub response", "operation", operation, "error", err)
		return nil
	}
	return err
}

// rest returns a go-github client bound to cred.
func (c *Client) rest(cred model.Credential) (*github.Client, *callTransport, error) {
	hc, rec := c.httpClient(cred)
	gh := github.NewClient(hc)
	if c.apiURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(c.apiURL, c.apiURL)
		if err != nil {
			return nil, nil, err
		}
	}
	return gh, rec, nil
}

// TokenScopes returns the OAuth scopes GitHub reports for the credential.
func (c *Client) TokenScopes(ctx context.Context, cred model.Credential) ([]string, error) {
	gh, rec, err := c.rest(cred)
	if err != nil {
		return nil, err
	}
	_, resp, err := gh.Users.Get(ctx, "")
	if err != nil {
		return nil, c.wrapError(ctx, "get authenticated user", rec, err)
	}

	var scopes []string
	for _, s := range strings.Split(resp.Header.Get("X-OAuth-Scopes"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes, nil
}

// UserInstallations returns one page of the app installations visible to a
// user-to-server token. The cursor is the REST page number.
func (c *Client) UserInstallations(ctx context.Context, cred model.Credential, cursor *string) (paginate.Page[model.Installation], error) {
	gh, rec, err := c.rest(cred)
	if err != nil {
		return paginate.Page[model.Installation]{}, err
	}
	opts := &github.ListOptions{PerPage: defaultPageSize}
	if cursor != nil {
		if opts.Page, err = strconv.Atoi(*cursor); err != nil {
			return paginate.Page[model.Installation]{}, err
		}
	}

	installations, resp, err := gh.Apps.ListUserInstallations(ctx, opts)
	if err != nil {
		return paginate.Page[model.Installation]{}, c.wrapError(ctx, "list user installations", rec, err)
	}

	page := paginate.Page[model.Installation]{Nodes: make([]model.Installation, 0, len(installations))}
	for _, inst := range installations {
		page.Nodes = append(page.Nodes, model.Installation{ID: inst.GetID(), AppID: inst.GetAppID()})
	}
	if resp.NextPage != 0 {
		page.HasNextPage = true
		page.EndCursor = strconv.Itoa(resp.NextPage)
	}
	return page, nil
}

// wrapError converts go-github errors to UpstreamError.
func (c *Client) wrapError(ctx context.Context, operation string, rec *callTransport, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &custom_errors.UpstreamError{Operation: operation, Status: ghErr.Response.StatusCode, Message: ghErr.Message, Err: err}
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &custom_errors.UpstreamError{Operation: operation, Status: http.StatusTooManyRequests, Message: rateErr.Message, Err: err}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &custom_errors.UpstreamError{Operation: operation, Status: http.StatusTooManyRequests, Message: abuseErr.Message, Err: err}
	}
	return &custom_errors.UpstreamError{Operation: operation, Status: rec.status, Message: err.Error(), Err: err}
}
