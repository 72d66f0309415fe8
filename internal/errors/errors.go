// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"catalog-sync/internal/model"
)

var (
	// ErrIntegrationNotInstalled replaces GitHub's "Resource not accessible by
	// integration" message, which means the app is not installed where the
	// data lives.
	ErrIntegrationNotInstalled = errors.New("the GitHub App is not installed on this account or organization; install it to grant access")

	// ErrNotFound is returned when neither GitHub nor the cache knows the entity.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned by operations that need a signed-in account.
	ErrUnauthenticated = errors.New("authentication required")
)

// ErrInvalidRepoFormat is returned when a repository string is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// UpstreamError is a failed call to GitHub: a non-2xx status, a transport
// failure (Status 0), or a GraphQL errors array (Partial, with whatever data
// GitHub did return already decoded into the caller's query).
type UpstreamError struct {
	Operation string
	Status    int
	Message   string
	Partial   bool
	Err       error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Partial:
		return fmt.Sprintf("github %s: partial response: %s", e.Operation, e.Message)
	case e.Status == 0:
		return fmt.Sprintf("github %s: %s", e.Operation, e.Message)
	default:
		return fmt.Sprintf("github %s: status %d: %s", e.Operation, e.Status, e.Message)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same call may succeed.
func (e *UpstreamError) Retryable() bool {
	if e.Partial {
		return false
	}
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// NotAuthorized is returned before any upstream call when the caller's tier
// is below what an operation requires.
type NotAuthorized struct {
	Operation string
	Required  model.Tier
	Actual    model.Tier
}

func (e *NotAuthorized) Error() string {
	return fmt.Sprintf("not authorized to %s: requires %s access, caller has %s", e.Operation, e.Required, e.Actual)
}

// MalformedRecord describes an upstream row that lacks a required field.
// It is logged and the row is skipped; it never reaches callers.
type MalformedRecord struct {
	Entity string
	ID     string
	Field  string
}

func (e *MalformedRecord) Error() string {
	return fmt.Sprintf("malformed %s record %q: missing %s", e.Entity, e.ID, e.Field)
}

// CacheWriteFailure wraps a persistence error on a best-effort cache write.
type CacheWriteFailure struct {
	Job string
	Err error
}

func (e *CacheWriteFailure) Error() string {
	return fmt.Sprintf("cache write %s failed: %v", e.Job, e.Err)
}

func (e *CacheWriteFailure) Unwrap() error { return e.Err }

// IsRetryable reports whether err is an upstream failure worth retrying.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}

// IsPartial reports whether err carries a partial GraphQL response.
func IsPartial(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Partial
}
