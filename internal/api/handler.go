// internal/api/handler.go
package api

import (
	"encoding/json"
	"expvar"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graphql-go/graphql"

	"catalog-sync/internal/database"
	"catalog-sync/internal/syncer"
	"catalog-sync/internal/tier"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Service    *syncer.Service
	Accounts   AccountStore
	Resolver   *tier.Resolver
	Languages  database.Querier
	LoaderWait time.Duration
	Secret     []byte
	Logger     *slog.Logger
}

// Handler is the container for API dependencies.
type Handler struct {
	accounts   AccountStore
	resolver   *tier.Resolver
	languages  database.Querier
	loaderWait time.Duration
	secret     []byte
	schema     graphql.Schema
	logger     *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(deps Deps) (http.Handler, error) {
	schema, err := newSchema(deps.Service)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		accounts:   deps.Accounts,
		resolver:   deps.Resolver,
		languages:  deps.Languages,
		loaderWait: deps.LoaderWait,
		secret:     deps.Secret,
		schema:     schema,
		logger:     deps.Logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Handle("/debug/vars", expvar.Handler())
	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Get("/graphql", h.graphQL)
		r.Post("/graphql", h.graphQL)
	})

	return r, nil
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// graphQL executes a query. Field errors are returned alongside whatever
// data resolved, so the status is 200 unless the request itself is bad.
func (h *Handler) graphQL(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if r.Method == http.MethodGet {
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if vars := r.URL.Query().Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid 'variables' parameter")
				return
			}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		respondWithError(w, http.StatusBadRequest, "Missing query")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
	if result.HasErrors() {
		h.logger.Debug("GraphQL request returned errors", "count", len(result.Errors), "first", result.Errors[0].Message)
	}
	respondWithJSON(w, http.StatusOK, result)
}
