// internal/tier/session.go
package tier

import (
	"context"
	"sync"

	"catalog-sync/internal/model"
)

// Session resolves a caller's access once per inbound request. It must not
// outlive the request: installation and token state can change between
// requests.
type Session struct {
	resolver *Resolver
	account  *model.LocalAccount

	once   sync.Once
	access Access
}

func NewSession(resolver *Resolver, account *model.LocalAccount) *Session {
	return &Session{resolver: resolver, account: account}
}

// Access resolves on first use. Later calls return the same result.
func (s *Session) Access(ctx context.Context) Access {
	s.once.Do(func() {
		s.access = s.resolver.Resolve(ctx, s.account)
	})
	return s.access
}

// Account is the signed-in account, or nil for anonymous callers.
func (s *Session) Account() *model.LocalAccount {
	return s.account
}

// Fixed returns a session with a predetermined access, used by background
// refreshes that act with the app-wide credential.
func Fixed(access Access) *Session {
	s := &Session{account: access.Account, access: access}
	s.once.Do(func() {})
	return s
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the request's session, or nil when none is attached.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
