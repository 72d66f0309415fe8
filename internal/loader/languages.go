// internal/loader/languages.go
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"catalog-sync/internal/database"
	"catalog-sync/internal/model"
)

// Languages finds or creates languages by name. Loads issued within the
// wait window are upserted together, and each name is upserted at most once
// for the lifetime of the loader. Create one per inbound request.
type Languages struct {
	q      database.Querier
	loader *dataloader.Loader[string, model.Language]

	mu     sync.Mutex
	colors map[string]string
}

// NewLanguages returns a loader that batches loads issued within wait.
func NewLanguages(q database.Querier, wait time.Duration) *Languages {
	l := &Languages{q: q, colors: make(map[string]string)}
	opts := []dataloader.Option[string, model.Language]{}
	if wait > 0 {
		opts = append(opts, dataloader.WithWait[string, model.Language](wait))
	}
	l.loader = dataloader.NewBatchedLoader(l.batch, opts...)
	return l
}

// remember keeps the first non-empty color reported for a name.
func (l *Languages) remember(lang model.Language) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.colors[lang.Name] == "" {
		l.colors[lang.Name] = lang.Color
	}
}

func (l *Languages) color(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.colors[name]
}

// Load resolves one language to its stored form.
func (l *Languages) Load(ctx context.Context, lang model.Language) (model.Language, error) {
	l.remember(lang)
	return l.loader.Load(ctx, lang.Name)()
}

// LoadMany resolves every language in input order, one result per input
// including duplicates.
func (l *Languages) LoadMany(ctx context.Context, langs []model.Language) ([]model.Language, error) {
	if len(langs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(langs))
	for i, lang := range langs {
		l.remember(lang)
		keys[i] = lang.Name
	}
	out, errs := l.loader.LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *Languages) batch(ctx context.Context, names []string) []*dataloader.Result[model.Language] {
	params := database.UpsertLanguagesParams{}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		params.Names = append(params.Names, name)
		params.Colors = append(params.Colors, l.color(name))
	}

	results := make([]*dataloader.Result[model.Language], len(names))
	rows, err := l.q.UpsertLanguages(ctx, params)
	if err != nil {
		for i := range results {
			results[i] = &dataloader.Result[model.Language]{Error: fmt.Errorf("upsert languages: %w", err)}
		}
		return results
	}

	byName := make(map[string]model.Language, len(rows))
	for _, row := range rows {
		byName[row.Name] = model.Language{Name: row.Name, Color: row.Color.String}
	}
	for i, name := range names {
		lang, ok := byName[name]
		if !ok {
			results[i] = &dataloader.Result[model.Language]{Error: fmt.Errorf("language %q was not returned by upsert", name)}
			continue
		}
		results[i] = &dataloader.Result[model.Language]{Data: lang}
	}
	return results
}

type ctxKey struct{}

// WithLanguages attaches a request-scoped loader to ctx.
func WithLanguages(ctx context.Context, l *Languages) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// LanguagesFrom returns the loader attached to ctx, or nil.
func LanguagesFrom(ctx context.Context) *Languages {
	l, _ := ctx.Value(ctxKey{}).(*Languages)
	return l
}
