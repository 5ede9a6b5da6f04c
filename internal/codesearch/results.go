package codesearch

import (
	"sort"

	"github.com/temirov/ghtools/internal/githubcli"
)

// SortKey orders search results.
type SortKey string

// Supported sort keys. SortNone keeps the order returned by GitHub.
const (
	SortNone       SortKey = SortKey("")
	SortMatches    SortKey = SortKey(sortKeyMatchesConstant)
	SortRepository SortKey = SortKey(sortKeyRepositoryConstant)
	SortPath       SortKey = SortKey(sortKeyPathConstant)
)

// FilterOptions narrows search results after they are fetched.
type FilterOptions struct {
	ExcludeForks   bool
	ExcludePrivate bool
	MinMatches     int
}

// FilterResults drops results rejected by options, keeping the original order.
func FilterResults(results []githubcli.CodeSearchResult, options FilterOptions) []githubcli.CodeSearchResult {
	filtered := make([]githubcli.CodeSearchResult, 0, len(results))
	for _, result := range results {
		if options.ExcludeForks && result.Repository.IsFork {
			continue
		}
		if options.ExcludePrivate && result.Repository.IsPrivate {
			continue
		}
		if options.MinMatches > 0 && len(result.TextMatches) < options.MinMatches {
			continue
		}
		filtered = append(filtered, result)
	}
	return filtered
}

// SortResults returns a copy of results ordered by key. Ties keep their input
// order. Matches sort in descending order, repositories and paths ascending.
func SortResults(results []githubcli.CodeSearchResult, key SortKey) []githubcli.CodeSearchResult {
	sorted := make([]githubcli.CodeSearchResult, len(results))
	copy(sorted, results)

	switch key {
	case SortMatches:
		sort.SliceStable(sorted, func(left int, right int) bool {
			return len(sorted[left].TextMatches) > len(sorted[right].TextMatches)
		})
	case SortRepository:
		sort.SliceStable(sorted, func(left int, right int) bool {
			return sorted[left].Repository.NameWithOwner < sorted[right].Repository.NameWithOwner
		})
	case SortPath:
		sort.SliceStable(sorted, func(left int, right int) bool {
			return sorted[left].Path < sorted[right].Path
		})
	}
	return sorted
}
