// internal/tier/resolver.go
package tier

import (
	"context"
	"log/slog"
	"strings"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/github"
	"catalog-sync/internal/model"
	"catalog-sync/internal/paginate"
)

// DefaultRequiredScopes are the personal token scopes that unlock ADVANCED.
var DefaultRequiredScopes = []string{"read:org", "read:user"}

// Upstream is the part of the GitHub client used to verify credentials.
type Upstream interface {
	TokenScopes(ctx context.Context, cred model.Credential) ([]string, error)
	UserInstallations(ctx context.Context, cred model.Credential, cursor *string) (paginate.Page[model.Installation], error)
}

// AccountStore persists the tier last resolved for an account.
type AccountStore interface {
	UpdateTier(ctx context.Context, id string, tier model.Tier) error
}

// Access is the outcome of resolving a caller: its tier and the credential
// to use for every upstream call in the request.
type Access struct {
	Tier       model.Tier
	Credential model.Credential
	Account    *model.LocalAccount
}

type Config struct {
	AppID          int64
	RequiredScopes []string
}

// Resolver classifies callers into access tiers.
type Resolver struct {
	upstream Upstream
	app      github.CredentialSource
	accounts AccountStore
	appID    int64
	scopes   []string
	logger   *slog.Logger
}

// NewResolver creates a Resolver. accounts may be nil, in which case the
// resolved tier is not written back.
func NewResolver(upstream Upstream, app github.CredentialSource, accounts AccountStore, cfg Config, logger *slog.Logger) *Resolver {
	scopes := cfg.RequiredScopes
	if len(scopes) == 0 {
		scopes = DefaultRequiredScopes
	}
	return &Resolver{
		upstream: upstream,
		app:      app,
		accounts: accounts,
		appID:    cfg.AppID,
		scopes:   scopes,
		logger:   logger.With("component", "tier"),
	}
}

// Resolve picks the highest tier the evidence supports. Verification
// failures never surface: they downgrade the caller and are logged.
func (r *Resolver) Resolve(ctx context.Context, account *model.LocalAccount) Access {
	access := r.resolve(ctx, account)
	if account != nil && r.accounts != nil && account.AccessTier != access.Tier {
		if err := r.accounts.UpdateTier(ctx, account.ID, access.Tier); err != nil {
			r.logger.Warn("Failed to store resolved tier", "account", account.ID, "tier", access.Tier, "error", err)
		} else {
			account.AccessTier = access.Tier
		}
	}
	return access
}

func (r *Resolver) resolve(ctx context.Context, account *model.LocalAccount) Access {
	if account == nil {
		return Access{Tier: model.TierBasic, Credential: r.appCredential(ctx)}
	}

	if pat := account.PersonalAccessToken; pat != nil && *pat != "" {
		cred := model.Credential{Token: *pat, Source: model.CredentialPersonal}
		ok, err := r.hasScopes(ctx, cred)
		switch {
		case err != nil:
			r.logger.Warn("Personal token check failed, downgrading", "account", account.ID, "error", err)
		case !ok:
			r.logger.Debug("Personal token lacks required scopes", "account", account.ID, "required", r.scopes)
		default:
			return Access{Tier: model.TierAdvanced, Credential: cred, Account: account}
		}
	}

	if account.InstallationAccessToken != "" {
		cred := model.Credential{Token: account.InstallationAccessToken, Source: model.CredentialInstallation}
		ok, err := r.installed(ctx, cred)
		switch {
		case err != nil:
			r.logger.Warn("Installation check failed, downgrading", "account", account.ID, "error", err)
		case ok:
			return Access{Tier: model.TierMedium, Credential: cred, Account: account}
		}
		return Access{Tier: model.TierBasic, Credential: cred, Account: account}
	}

	return Access{Tier: model.TierBasic, Credential: r.appCredential(ctx), Account: account}
}

func (r *Resolver) hasScopes(ctx context.Context, cred model.Credential) (bool, error) {
	granted, err := r.upstream.TokenScopes(ctx, cred)
	if err != nil {
		return false, err
	}
	return HasScopes(granted, r.scopes), nil
}

func (r *Resolver) installed(ctx context.Context, cred model.Credential) (bool, error) {
	if r.appID == 0 {
		return false, nil
	}
	fetch := func(ctx context.Context, cursor *string) (paginate.Page[model.Installation], error) {
		return r.upstream.UserInstallations(ctx, cred, cursor)
	}
	for inst, err := range paginate.All(ctx, fetch) {
		if err != nil {
			return false, err
		}
		if inst.AppID == r.appID {
			return true, nil
		}
	}
	return false, nil
}

// appCredential falls back to an anonymous credential when the app-wide
// token cannot be obtained.
func (r *Resolver) appCredential(ctx context.Context) model.Credential {
	if r.app == nil {
		return model.Credential{Source: model.CredentialApp}
	}
	cred, err := r.app.Credential(ctx)
	if err != nil {
		r.logger.Warn("App credential unavailable, calling anonymously", "error", err)
		return model.Credential{Source: model.CredentialApp}
	}
	return cred
}

// HasScopes reports whether granted covers every required scope. A granted
// parent scope covers its children, e.g. "user" covers "read:user" and
// "admin:org" covers "read:org".
func HasScopes(granted, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		set[strings.TrimSpace(s)] = struct{}{}
	}
	for _, want := range required {
		if !covered(set, want) {
			return false
		}
	}
	return true
}

func covered(set map[string]struct{}, want string) bool {
	if _, ok := set[want]; ok {
		return true
	}
	action, resource, ok := strings.Cut(want, ":")
	if !ok {
		return false
	}
	if _, ok := set[resource]; ok {
		return true
	}
	if action == "read" {
		for _, parent := range []string{"write:" + resource, "admin:" + resource} {
			if _, ok := set[parent]; ok {
				return true
			}
		}
	}
	return false
}

// Require rejects access below min before any upstream call is made.
func Require(access Access, operation string, min model.Tier) error {
	if access.Tier < min {
		return &custom_errors.NotAuthorized{Operation: operation, Required: min, Actual: access.Tier}
	}
	return nil
}
