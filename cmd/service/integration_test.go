//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"catalog-sync/internal/database"
	"catalog-sync/internal/github"
	"catalog-sync/internal/model"
	"catalog-sync/internal/paginate"
	"catalog-sync/internal/reconcile"
	"catalog-sync/internal/storage/accounts"
	"catalog-sync/internal/syncer"
	"catalog-sync/internal/tier"
	"catalog-sync/internal/writequeue"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, string, func()) {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	teardown := func() {
		dbpool.Close()
		require.NoError(t, pgContainer.Terminate(ctx))
	}
	return dbpool, connStr, teardown
}

func strPtr(s string) *string { return &s }

func repository(stars model.StarCount) model.Repository {
	return model.Repository{
		ExternalID:      "R_1",
		Name:            "hello-world",
		FullName:        "octocat/hello-world",
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		URL:             "https://github.com/octocat/hello-world",
		StarCount:       stars,
		Owner:           model.OwnerRef{Owner: &model.User{Account: model.Account{ExternalID: "U_1", Login: "octocat"}}},
		PrimaryLanguage: &model.Language{Name: "Go", Color: "#00ADD8"},
		Languages:       []model.Language{{Name: "Go", Color: "#00ADD8"}, {Name: "Shell"}},
	}
}

func TestApplier_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, _, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	q := database.New(dbpool)
	applier := reconcile.NewApplier(database.NewTxPool(dbpool), logger)
	save := &reconcile.SaveRepositories{
		Repositories:    []model.Repository{repository(model.UnknownStars)},
		EnsureLanguages: []model.Language{{Name: "Go", Color: "#00ADD8"}, {Name: "Shell"}},
	}

	// --- ACT ---
	require.NoError(t, applier.Apply(ctx, save))
	require.NoError(t, applier.Apply(ctx, save))

	// --- ASSERT ---
	row, err := q.GetRepositoryByFullName(ctx, "octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "R_1", row.ExternalID)
	assert.Equal(t, int32(model.UnknownStars), row.StarCount, "a repository saved without a count keeps the unknown sentinel")

	langs, err := q.ListRepositoryLanguages(ctx, []int64{row.ID})
	require.NoError(t, err)
	assert.Len(t, langs, 2)

	require.NoError(t, applier.Apply(ctx, &reconcile.SaveStarCount{Repository: repository(42), Stars: 42}))
	require.NoError(t, applier.Apply(ctx, save))

	row, err = q.GetRepositoryByFullName(ctx, "octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, int32(42), row.StarCount, "metadata upserts must not reset a fetched star count")

	owners, err := q.GetOwnersByExternalIDs(ctx, []string{"U_1"})
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "user", owners[0].Kind)
}

func TestApplier_OwnerKindChange_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, _, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	q := database.New(dbpool)
	applier := reconcile.NewApplier(database.NewTxPool(dbpool), logger)
	require.NoError(t, applier.Apply(ctx, &reconcile.SaveOwners{Owners: []model.OwnerRef{
		{Owner: &model.User{Account: model.Account{ExternalID: "U_1", Login: "octocat"}, Bio: strPtr("I like cats")}},
	}}))

	// The account became an organization and is now seen as a repository owner.
	repo := repository(model.UnknownStars)
	repo.Owner = model.OwnerRef{Owner: &model.Organization{Account: model.Account{ExternalID: "U_1", Login: "octocat"}}}
	require.NoError(t, applier.Apply(ctx, &reconcile.SaveRepositories{
		Repositories:    []model.Repository{repo},
		EnsureLanguages: repo.Languages,
	}))

	owners, err := q.GetOwnersByExternalIDs(ctx, []string{"U_1"})
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "organization", owners[0].Kind)
	assert.False(t, owners[0].Bio.Valid)
}

// recordingApplier forwards to a real applier and signals each applied job.
type recordingApplier struct {
	next    writequeue.Applier
	applied chan reconcile.Kind
}

func (a *recordingApplier) Apply(ctx context.Context, job reconcile.Job) error {
	if err := a.next.Apply(ctx, job); err != nil {
		return err
	}
	a.applied <- job.Kind()
	return nil
}

func TestRiver_EnqueueOutlivesCaller_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, _, teardown := setupTestDatabase(ctx, t)
	defer teardown()
	require.NoError(t, writequeue.MigrateRiver(ctx, dbpool))

	applier := &recordingApplier{
		next:    reconcile.NewApplier(database.NewTxPool(dbpool), logger),
		applied: make(chan reconcile.Kind, 1),
	}
	queue, err := writequeue.NewRiver(dbpool, applier, writequeue.Config{MaxRetries: 1, InitialInterval: time.Millisecond}, logger)
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- queue.Run(runCtx) }()
	defer func() {
		stop()
		<-done
	}()
	<-queue.Running()

	// The enqueuing request is already gone.
	reqCtx, cancel := context.WithCancel(ctx)
	cancel()
	repo := repository(model.UnknownStars)
	require.NoError(t, queue.Enqueue(reqCtx, &reconcile.SaveRepositories{
		Repositories:    []model.Repository{repo},
		EnsureLanguages: repo.Languages,
	}))

	select {
	case kind := <-applier.applied:
		assert.Equal(t, reconcile.KindSaveRepositories, kind)
	case <-time.After(30 * time.Second):
		t.Fatal("river did not apply the job")
	}
	_, err = database.New(dbpool).GetRepositoryByFullName(ctx, "octocat/hello-world")
	require.NoError(t, err)
}

// stubUpstream serves a single user and fails everything else.
type stubUpstream struct {
	syncer.Upstream
	calls atomic.Int64
}

func (s *stubUpstream) User(_ context.Context, _ model.Credential, login string) (github.UserNode, error) {
	s.calls.Add(1)
	if login != "octocat" {
		return github.UserNode{}, errors.New("unexpected login " + login)
	}
	return github.UserNode{
		AccountFields: github.AccountFields{ID: "U_1", Login: "octocat", URL: "https://github.com/octocat"},
		Email:         "octo@example.com",
		Name:          strPtr("The Octocat"),
	}, nil
}

func (s *stubUpstream) OwnerRepositoriesPage(context.Context, model.Credential, string, *string) (paginate.Page[github.RepositoryPayload], error) {
	s.calls.Add(1)
	return paginate.Page[github.RepositoryPayload]{}, nil
}

func TestService_ReadThrough_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, _, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	q := database.New(dbpool)
	queue := writequeue.NewInline(reconcile.NewApplier(database.NewTxPool(dbpool), logger), writequeue.Config{MaxRetries: 1}, logger)
	upstream := &stubUpstream{}
	svc := syncer.NewService(upstream, q, reconcile.New(queue, logger), syncer.Config{Policy: syncer.TTL(time.Hour)}, logger)
	ctx = tier.WithSession(ctx, tier.Fixed(tier.Access{Tier: model.TierBasic}))

	first, err := svc.User(ctx, "octocat")
	require.NoError(t, err)
	assert.Equal(t, int64(1), upstream.calls.Load())

	second, err := svc.User(ctx, "OctoCat")
	require.NoError(t, err)
	assert.Equal(t, int64(1), upstream.calls.Load(), "a fresh entry is served from the cache")
	assert.Equal(t, first, second)

	repos, err := svc.OwnerRepositories(ctx, first, syncer.RepositoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, repos)
	_, err = svc.OwnerRepositories(ctx, first, syncer.RepositoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), upstream.calls.Load(), "an empty relation is still remembered as synced")
}

func TestAccountsStore_Postgres_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	_, connStr, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	store, err := accounts.Open(accounts.Config{Driver: "postgres", DSN: connStr, AutoMigrate: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, model.LocalAccount{ID: "acc-1", Login: "octocat", PersonalAccessToken: strPtr("ghp_x")}))
	require.NoError(t, store.UpdateTier(ctx, "acc-1", model.TierAdvanced))

	got, err := store.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, model.TierAdvanced, got.AccessTier)
	assert.Equal(t, "ghp_x", *got.PersonalAccessToken)
}
