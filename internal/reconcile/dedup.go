// internal/reconcile/dedup.go
package reconcile

import "catalog-sync/internal/model"

// DedupLanguages merges the lists into one, dropping exact duplicates and
// keeping first-seen order.
func DedupLanguages(lists ...[]model.Language) []model.Language {
	seen := make(map[model.Language]struct{})
	var out []model.Language
	for _, list := range lists {
		for _, lang := range list {
			if _, ok := seen[lang]; ok {
				continue
			}
			seen[lang] = struct{}{}
			out = append(out, lang)
		}
	}
	return out
}

// repositoryLanguages lists every language a batch of repositories refers to.
func repositoryLanguages(repos []model.Repository) []model.Language {
	lists := make([][]model.Language, 0, len(repos)*2)
	for _, r := range repos {
		if r.PrimaryLanguage != nil {
			lists = append(lists, []model.Language{*r.PrimaryLanguage})
		}
		lists = append(lists, r.Languages)
	}
	return DedupLanguages(lists...)
}
