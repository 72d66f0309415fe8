// internal/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-sync/internal/model"
)

func TestUpstreamError_Retryable(t *testing.T) {
	cases := []struct {
		name string
		err  *UpstreamError
		want bool
	}{
		{"transport", &UpstreamError{Status: 0}, true},
		{"server error", &UpstreamError{Status: http.StatusBadGateway}, true},
		{"rate limited", &UpstreamError{Status: http.StatusTooManyRequests}, true},
		{"not found", &UpstreamError{Status: http.StatusNotFound}, false},
		{"partial", &UpstreamError{Status: http.StatusOK, Partial: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Retryable())
			assert.Equal(t, tc.want, IsRetryable(fmt.Errorf("wrapped: %w", tc.err)))
		})
	}
}

func TestUpstreamError_UnwrapsIntegrationMessage(t *testing.T) {
	err := &UpstreamError{Operation: "organization", Status: 200, Partial: true, Message: ErrIntegrationNotInstalled.Error(), Err: ErrIntegrationNotInstalled}
	assert.True(t, errors.Is(err, ErrIntegrationNotInstalled))
	assert.True(t, IsPartial(err))
	assert.Contains(t, err.Error(), "not installed")
}

func TestNotAuthorized_Message(t *testing.T) {
	err := &NotAuthorized{Operation: "list members", Required: model.TierMedium, Actual: model.TierBasic}
	assert.Equal(t, "not authorized to list members: requires MEDIUM access, caller has BASIC", err.Error())
}

func TestErrInvalidRepoFormat(t *testing.T) {
	err := &ErrInvalidRepoFormat{Repo: "nope"}
	assert.Equal(t, `invalid repository format: "nope", expected 'owner/name'`, err.Error())
}
