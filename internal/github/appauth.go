// internal/github/appauth.go
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"

	"catalog-sync/internal/model"
)

// CredentialSource yields the app-wide credential used for callers without
// a token of their own and for background refreshes.
type CredentialSource interface {
	Credential(ctx context.Context) (model.Credential, error)
}

// StaticCredential is a fixed app-wide token.
type StaticCredential string

func (s StaticCredential) Credential(context.Context) (model.Credential, error) {
	return model.Credential{Token: string(s), Source: model.CredentialApp}, nil
}

// AppInstallationCredential mints and caches GitHub App installation tokens.
type AppInstallationCredential struct {
	tr *ghinstallation.Transport
}

// NewAppInstallationCredential loads the app's private key from keyPath.
// apiURL points token exchange at GitHub Enterprise when set.
func NewAppInstallationCredential(base http.RoundTripper, apiURL string, appID, installationID int64, keyPath string) (*AppInstallationCredential, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	tr, err := ghinstallation.NewKeyFromFile(base, appID, installationID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	if apiURL != "" {
		tr.BaseURL = strings.TrimSuffix(apiURL, "/")
	}
	return &AppInstallationCredential{tr: tr}, nil
}

func (a *AppInstallationCredential) Credential(ctx context.Context) (model.Credential, error) {
	token, err := a.tr.Token(ctx)
	if err != nil {
		return model.Credential{}, fmt.Errorf("failed to mint installation token: %w", err)
	}
	return model.Credential{Token: token, Source: model.CredentialApp}, nil
}
