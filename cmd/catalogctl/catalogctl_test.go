// cmd/catalogctl/catalogctl_test.go
package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestTokenCmd_IssuesVerifiableToken(t *testing.T) {
	t.Setenv("DB_URL", "postgres://unused")
	t.Setenv("GITHUB_TOKEN", "ghp_unused")
	t.Setenv("SESSION_SECRET", "cli-secret")

	out, err := execute(t, "token", "acc-1", "--ttl", "1h")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (any, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCmd_RequiresConfig(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("SESSION_SECRET", "")

	_, err := execute(t, "token", "acc-1")
	assert.Error(t, err)
}

func TestRefreshRepoCmd_RejectsMalformedIdentifier(t *testing.T) {
	_, err := execute(t, "refresh", "repo", "not-a-repo")
	assert.ErrorContains(t, err, "owner/name")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"refresh", "owner"},
		{"refresh", "repo"},
		{"refresh", "tracked"},
		{"account", "save"},
		{"account", "tier"},
		{"token"},
		{"migrate"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], strings.Fields(cmd.Use)[0])
	}
}
