// internal/github/transport.go
package github

import (
	"net/http"
	"sync/atomic"

	"golang.org/x/oauth2"

	"catalog-sync/internal/model"
)

// callTransport is built for a single upstream call. It waits on the shared
// rate limiter and remembers the last HTTP status, which the GraphQL library
// does not expose.
type callTransport struct {
	base    http.RoundTripper
	limiter *RateLimiter
	calls   *atomic.Int64
	status  int
	header  http.Header
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	t.calls.Add(1)
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.status = resp.StatusCode
		t.header = resp.Header
		t.limiter.Observe(resp)
	}
	return resp, err
}

// httpClient returns a client that sends exactly one bearer credential.
// Connections are pooled by the shared base transport.
func (c *Client) httpClient(cred model.Credential) (*http.Client, *callTransport) {
	rec := &callTransport{base: c.base, limiter: c.limiter, calls: &c.calls}
	if cred.Token == "" {
		return &http.Client{Transport: rec}, rec
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Token}),
			Base:   rec,
		},
	}, rec
}
