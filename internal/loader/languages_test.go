// internal/loader/languages_test.go
package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-sync/internal/database"
	"catalog-sync/internal/database/databasetest"
	"catalog-sync/internal/model"
)

func TestLanguages_ConcurrentLoadsShareOneUpsert(t *testing.T) {
	mockQ := new(databasetest.MockQuerier)
	mockQ.On("UpsertLanguages", mock.Anything, mock.MatchedBy(func(p database.UpsertLanguagesParams) bool {
		return assert.ElementsMatch(t, []string{"Go", "Rust"}, p.Names)
	})).Return([]database.Language{
		{ID: 1, Name: "Go", Color: pgtype.Text{String: "#00ADD8", Valid: true}},
		{ID: 2, Name: "Rust", Color: pgtype.Text{String: "#dea584", Valid: true}},
	}, nil).Once()

	l := NewLanguages(mockQ, 20*time.Millisecond)
	ctx := context.Background()

	inputs := []model.Language{
		{Name: "Go", Color: "#00ADD8"},
		{Name: "Rust"},
		{Name: "Go", Color: "#00ADD8"},
		{Name: "Go"},
	}
	results := make([]model.Language, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := l.Load(ctx, in)
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	wg.Wait()

	assert.Equal(t, "#00ADD8", results[0].Color)
	assert.Equal(t, "#dea584", results[1].Color, "stored color wins over a missing one")
	assert.Equal(t, results[0], results[2])
	assert.Equal(t, results[0], results[3])
	mockQ.AssertNumberOfCalls(t, "UpsertLanguages", 1)
}

func TestLanguages_LoadManyKeepsInputOrder(t *testing.T) {
	mockQ := new(databasetest.MockQuerier)
	mockQ.On("UpsertLanguages", mock.Anything, database.UpsertLanguagesParams{
		Names:  []string{"Shell", "Go"},
		Colors: []string{"#89e051", "#00ADD8"},
	}).Return([]database.Language{
		{ID: 2, Name: "Go", Color: pgtype.Text{String: "#00ADD8", Valid: true}},
		{ID: 1, Name: "Shell", Color: pgtype.Text{String: "#89e051", Valid: true}},
	}, nil).Once()

	l := NewLanguages(mockQ, time.Millisecond)
	got, err := l.LoadMany(context.Background(), []model.Language{
		{Name: "Shell", Color: "#89e051"},
		{Name: "Go", Color: "#00ADD8"},
		{Name: "Shell", Color: "#89e051"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Shell", "Go", "Shell"}, []string{got[0].Name, got[1].Name, got[2].Name})

	// A later load in the same request is served from the loader cache.
	again, err := l.Load(context.Background(), model.Language{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "#00ADD8", again.Color)
	mockQ.AssertExpectations(t)
}

func TestLanguages_UpsertFailure(t *testing.T) {
	mockQ := new(databasetest.MockQuerier)
	mockQ.On("UpsertLanguages", mock.Anything, mock.Anything).Return([]database.Language(nil), errors.New("db down")).Once()

	l := NewLanguages(mockQ, time.Millisecond)
	_, err := l.LoadMany(context.Background(), []model.Language{{Name: "Go"}})
	assert.ErrorContains(t, err, "db down")
}

func TestLanguagesFromContext(t *testing.T) {
	assert.Nil(t, LanguagesFrom(context.Background()))
	l := NewLanguages(new(databasetest.MockQuerier), 0)
	assert.Same(t, l, LanguagesFrom(WithLanguages(context.Background(), l)))
}
