// internal/api/auth.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/loader"
	"catalog-sync/internal/model"
	"catalog-sync/internal/tier"
)

const sessionIssuer = "catalog-sync"

// AccountStore loads the account named by a session token.
type AccountStore interface {
	Get(ctx context.Context, id string) (*model.LocalAccount, error)
}

// IssueToken signs a session token for accountID.
func IssueToken(secret []byte, accountID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// sessionMiddleware attaches the caller's tier session and a fresh language
// loader to every request. Requests without a token are anonymous.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var account *model.LocalAccount
		if header := r.Header.Get("Authorization"); header != "" {
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}
			accountID, err := parseToken(h.secret, tokenString)
			if err != nil {
				h.logger.Debug("Rejected session token", "error", err)
				respondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			account, err = h.accounts.Get(ctx, accountID)
			if errors.Is(err, custom_errors.ErrNotFound) {
				respondWithError(w, http.StatusUnauthorized, "unknown account")
				return
			}
			if err != nil {
				h.logger.Error("Failed to load account", "account", accountID, "error", err)
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
		}

		ctx = tier.WithSession(ctx, tier.NewSession(h.resolver, account))
		ctx = loader.WithLanguages(ctx, loader.NewLanguages(h.languages, h.loaderWait))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
