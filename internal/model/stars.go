// internal/model/stars.go
package model

import "sort"

// StarCount is a stargazer count. UnknownStars marks a repository whose count
// has never been fetched; it is not a number and must not be ordered as one.
type StarCount int

const UnknownStars StarCount = -1

// Known reports whether the count came from a successful fetch.
func (s StarCount) Known() bool { return s >= 0 }

// CompareStars orders a before b when a has more stars. Unknown counts go
// after every known count, including zero, and compare equal to each other.
func CompareStars(a, b StarCount) int {
	switch {
	case !a.Known() && !b.Known():
		return 0
	case !a.Known():
		return 1
	case !b.Known():
		return -1
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

// SortByStars sorts repositories by descending star count, unknown last.
// The sort is stable so GitHub's order survives among equal counts.
func SortByStars(repos []Repository) {
	sort.SliceStable(repos, func(i, j int) bool {
		return CompareStars(repos[i].StarCount, repos[j].StarCount) < 0
	})
}
